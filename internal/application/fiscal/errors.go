package fiscal

import (
	"errors"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/shared"
)

var (
	// ErrOrderZeroed is returned when emitting for a cancelled or returned order
	ErrOrderZeroed = shared.NewDomainError("ORDER_ZEROED", fiscal.OperatorMessage("pedido_cancelado"))
	// ErrEmissionInProgress is returned when another emission holds the reference lock
	ErrEmissionInProgress = shared.NewDomainError("EMISSION_IN_PROGRESS", fiscal.OperatorMessage("emissao_em_andamento"))
	// ErrEmissionNotAllowed is returned when the order's document is past pending or rejected
	ErrEmissionNotAllowed = shared.NewDomainError("INVALID_STATE", "A nota fiscal deste pedido não pode ser reemitida no status atual.")
)

type codedError interface {
	ErrorCode() string
}

// errorCode picks the operator dictionary code for err
func errorCode(err error) string {
	var coded codedError
	if errors.As(err, &coded) && coded.ErrorCode() != "" {
		return coded.ErrorCode()
	}
	switch {
	case errors.Is(err, fiscal.ErrInvalidJustification):
		return "justificativa_invalida"
	case errors.Is(err, ErrOrderZeroed):
		return "pedido_cancelado"
	case errors.Is(err, ErrEmissionInProgress):
		return "emissao_em_andamento"
	case errors.Is(err, fiscal.ErrStatusRejected):
		return "status_nao_aceito"
	case errors.Is(err, fiscal.ErrRemoteNotFound):
		return "nao_encontrado"
	case errors.Is(err, fiscal.ErrRemoteUnavailable):
		return "api_indisponivel"
	case errors.Is(err, fiscal.ErrRemoteRejected):
		return "requisicao_invalida"
	}
	return ""
}

// OperatorMessageFor returns the operator-facing text for a service error
func OperatorMessageFor(err error) string {
	if err == nil {
		return ""
	}
	var de *shared.DomainError
	code := errorCode(err)
	if code == "" && errors.As(err, &de) {
		return de.Message
	}
	return fiscal.OperatorMessage(code)
}
