package focusnfe

import (
	"strings"
	"time"
	"unicode"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/shopspring/decimal"
)

const (
	tipoDocumentoSaida       = 1
	finalidadeNormal         = 1
	semInscricaoEstadual     = 9
	presencaInternet         = 2
	defaultPaymentMethodCode = "99"
)

func buildPayload(inv fiscal.Invoice) nfePayload {
	issued := inv.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	p := nfePayload{
		NaturezaOperacao:  inv.NatureOfOperation,
		DataEmissao:       issued.Format(time.RFC3339),
		TipoDocumento:     tipoDocumentoSaida,
		FinalidadeEmissao: finalidadeNormal,
		CNPJEmitente:      digits(inv.IssuerCNPJ),
		NomeDestinatario:  inv.Recipient.Name,
		Logradouro:        inv.Recipient.Street,
		Numero:            inv.Recipient.Number,
		Bairro:            inv.Recipient.District,
		Municipio:         inv.Recipient.City,
		UF:                strings.ToUpper(inv.Recipient.State),
		CEP:               digits(inv.Recipient.ZipCode),
		Email:             inv.Recipient.Email,
		IndicadorIE:       semInscricaoEstadual,
		PresencaComprador: presencaInternet,
		ModalidadeFrete:   inv.FreightMode,
		ValorTotal:        money(inv.Total()),
	}

	doc := digits(inv.Recipient.Document)
	if len(doc) == 14 {
		p.CNPJDestinatario = doc
	} else {
		p.CPFDestinatario = doc
	}
	if inv.Freight.IsPositive() {
		p.ValorFrete = money(inv.Freight)
	}
	if inv.Discount.IsPositive() {
		p.ValorDesconto = money(inv.Discount)
	}

	for i, it := range inv.Items {
		p.Items = append(p.Items, nfeItem{
			NumeroItem:               i + 1,
			CodigoProduto:            it.Code,
			Descricao:                it.Description,
			CFOP:                     it.CFOP,
			CodigoNCM:                digits(it.NCM),
			UnidadeComercial:         it.Unit,
			QuantidadeComercial:      it.Quantity.StringFixed(4),
			ValorUnitarioComercial:   it.UnitPrice.StringFixed(4),
			UnidadeTributavel:        it.Unit,
			QuantidadeTributavel:     it.Quantity.StringFixed(4),
			ValorUnitarioTributavel:  it.UnitPrice.StringFixed(4),
			ValorBruto:               money(it.Gross()),
			ICMSOrigem:               it.ICMSOrigin,
			ICMSSituacaoTributaria:   it.ICMSCode,
			PISSituacaoTributaria:    it.PISCode,
			COFINSSituacaoTributaria: it.COFINSCode,
		})
	}

	method := inv.PaymentMethod
	if method == "" {
		method = defaultPaymentMethodCode
	}
	p.FormasPagamento = []paymentPayload{{FormaPagamento: method, ValorPagamento: money(inv.Total())}}
	return p
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
