package fiscal

import (
	"errors"
	"strings"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := NewDocument(uuid.New(), uuid.New(), EnvironmentHomologation)
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func TestNewDocument(t *testing.T) {
	orderID := uuid.MustParse("7f1c3a52-64c4-4b1a-9a55-0b9f0f2d0e11")
	doc, err := NewDocument(uuid.New(), orderID, EnvironmentProduction)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, "7f1c3a5264c44b1a9a550b9f0f2d0e11-p", doc.Reference)

	_, err = NewDocument(uuid.Nil, orderID, EnvironmentProduction)
	assert.Error(t, err)
	_, err = NewDocument(uuid.New(), uuid.Nil, EnvironmentProduction)
	assert.Error(t, err)
	_, err = NewDocument(uuid.New(), orderID, Environment("staging"))
	assert.Error(t, err)
}

func TestDocument_ApplyRemote(t *testing.T) {
	doc := newTestDocument(t)

	previous := doc.ApplyRemote(RemoteReport{
		Status:    "autorizado",
		AccessKey: "35240612345678000190550010000001231000001234",
		Number:    "123",
		XMLURL:    "https://homologacao.focusnfe.com.br/arquivos/123.xml",
	})

	assert.Equal(t, StatusPending, previous)
	assert.Equal(t, StatusAuthorized, doc.Status)
	assert.Equal(t, "autorizado", doc.RemoteStatus)
	assert.NotNil(t, doc.AuthorizedAt)
	require.Len(t, doc.GetDomainEvents(), 1)

	// a later query without payload keeps what is known
	doc.ClearDomainEvents()
	doc.ApplyRemote(RemoteReport{Status: "autorizado"})
	assert.Equal(t, "123", doc.Number)
	assert.Equal(t, "35240612345678000190550010000001231000001234", doc.AccessKey)
	assert.Empty(t, doc.GetDomainEvents(), "no status change, no event")
}

func TestDocument_ApplyRemote_FallsBackToSefazStatus(t *testing.T) {
	doc := newTestDocument(t)
	doc.ApplyRemote(RemoteReport{SefazStatus: "denegado", ErrorCode: "110"})

	assert.Equal(t, StatusDenied, doc.Status)
	assert.Equal(t, "110", doc.LastErrorCode)
}

func TestDocument_ApplyRemote_SefazCodes(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		code    string
		want    Status
	}{
		{"authorized code", StatusPending, "100", StatusAuthorized},
		{"cancelled code", StatusAuthorized, "135", StatusCancelled},
		{"denied code", StatusPending, "302", StatusDenied},
		{"unknown code keeps status", StatusAuthorized, "204", StatusAuthorized},
		{"empty report keeps status", StatusAuthorized, "", StatusAuthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDocument(t)
			doc.Status = tt.current
			doc.ApplyRemote(RemoteReport{SefazStatus: tt.code})
			assert.Equal(t, tt.want, doc.Status)
		})
	}
}

func TestDocument_ApplyRemote_RemoteOverridesTerminal(t *testing.T) {
	doc := newTestDocument(t)
	doc.ApplyRemote(RemoteReport{Status: "erro_autorizacao"})
	require.Equal(t, StatusRejected, doc.Status)

	doc.ApplyRemote(RemoteReport{Status: "autorizado"})
	assert.Equal(t, StatusAuthorized, doc.Status)
}

func TestDocument_RequestCancellation(t *testing.T) {
	valid := "Pedido cancelado pelo comprador no marketplace"

	t.Run("pending document cannot be cancelled", func(t *testing.T) {
		doc := newTestDocument(t)
		err := doc.RequestCancellation(valid)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("short justification is rejected first", func(t *testing.T) {
		doc := newTestDocument(t)
		doc.ApplyRemote(RemoteReport{Status: "autorizado"})
		assert.ErrorIs(t, doc.RequestCancellation("curto demais"), ErrInvalidJustification)
	})

	t.Run("long justification is rejected", func(t *testing.T) {
		doc := newTestDocument(t)
		doc.ApplyRemote(RemoteReport{Status: "autorizado"})
		assert.ErrorIs(t, doc.RequestCancellation(strings.Repeat("a", 256)), ErrInvalidJustification)
	})

	t.Run("authorized document records justification", func(t *testing.T) {
		doc := newTestDocument(t)
		doc.ApplyRemote(RemoteReport{Status: "autorizado"})
		require.NoError(t, doc.RequestCancellation("  "+valid+"  "))
		assert.Equal(t, valid, doc.CancellationJustification)
		assert.Equal(t, StatusAuthorized, doc.Status, "status changes only when the remote confirms")
	})
}

func TestValidateJustification_CountsCharacters(t *testing.T) {
	// 15 characters, 17 bytes
	reason, err := ValidateJustification("Devolução total")
	require.NoError(t, err)
	assert.Equal(t, "Devolução total", reason)

	_, err = ValidateJustification(strings.Repeat("ç", 255))
	assert.NoError(t, err)
	_, err = ValidateJustification(strings.Repeat("ç", 14))
	assert.Error(t, err)
}

func TestResolveLink(t *testing.T) {
	base := "https://api.focusnfe.com.br"

	assert.Equal(t, "https://api.focusnfe.com.br/arquivos/1/nfe.xml", ResolveLink(base, "/arquivos/1/nfe.xml"))
	assert.Equal(t, "https://cdn.example.com/x.pdf", ResolveLink(base, "https://cdn.example.com/x.pdf"))
	assert.Equal(t, "", ResolveLink(base, ""))
	assert.Equal(t, "/a.xml", ResolveLink("", "/a.xml"))
}

func TestOperatorMessage(t *testing.T) {
	assert.Contains(t, OperatorMessage("204"), "Duplicidade")
	assert.Contains(t, OperatorMessage("sefaz_204"), "Duplicidade")
	assert.Contains(t, OperatorMessage("REQUISICAO_INVALIDA"), "inválida")
	assert.Contains(t, OperatorMessage("envio_nf_obrigatoria"), "etiqueta")
	assert.Equal(t, "Erro na integração fiscal (código xyz).", OperatorMessage("xyz"))
	assert.NotEmpty(t, OperatorMessage(""))
	assert.True(t, HasOperatorMessage("778"))
	assert.False(t, HasOperatorMessage("xyz"))
}

func TestInvoice_Total(t *testing.T) {
	inv := Invoice{
		Items: []InvoiceItem{
			{Quantity: dec("2"), UnitPrice: dec("50")},
			{Quantity: dec("1"), UnitPrice: dec("30")},
		},
		Freight:  dec("15"),
		Discount: dec("5"),
	}
	assert.True(t, inv.Total().Equal(dec("140")))
}
