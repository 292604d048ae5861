package focusnfe

import (
	"github.com/erp/backoffice/internal/domain/fiscal"
)

// nfePayload is the NF-e emission body accepted by POST /v2/nfe
type nfePayload struct {
	NaturezaOperacao  string           `json:"natureza_operacao" validate:"required,max=60"`
	DataEmissao       string           `json:"data_emissao" validate:"required"`
	TipoDocumento     int              `json:"tipo_documento"`
	FinalidadeEmissao int              `json:"finalidade_emissao" validate:"min=1,max=4"`
	CNPJEmitente      string           `json:"cnpj_emitente" validate:"required,len=14,numeric"`
	NomeDestinatario  string           `json:"nome_destinatario" validate:"required,max=60"`
	CPFDestinatario   string           `json:"cpf_destinatario,omitempty" validate:"omitempty,len=11,numeric"`
	CNPJDestinatario  string           `json:"cnpj_destinatario,omitempty" validate:"omitempty,len=14,numeric"`
	Logradouro        string           `json:"logradouro_destinatario,omitempty"`
	Numero            string           `json:"numero_destinatario,omitempty"`
	Bairro            string           `json:"bairro_destinatario,omitempty"`
	Municipio         string           `json:"municipio_destinatario,omitempty"`
	UF                string           `json:"uf_destinatario,omitempty" validate:"omitempty,len=2"`
	CEP               string           `json:"cep_destinatario,omitempty" validate:"omitempty,len=8,numeric"`
	Email             string           `json:"email_destinatario,omitempty" validate:"omitempty,email"`
	IndicadorIE       int              `json:"indicador_inscricao_estadual_destinatario"`
	PresencaComprador int              `json:"presenca_comprador"`
	ModalidadeFrete   int              `json:"modalidade_frete"`
	ValorFrete        string           `json:"valor_frete,omitempty"`
	ValorDesconto     string           `json:"valor_desconto,omitempty"`
	ValorTotal        string           `json:"valor_total"`
	Items             []nfeItem        `json:"items" validate:"required,min=1,dive"`
	FormasPagamento   []paymentPayload `json:"formas_pagamento,omitempty" validate:"dive"`
}

type nfeItem struct {
	NumeroItem               int    `json:"numero_item" validate:"min=1"`
	CodigoProduto            string `json:"codigo_produto" validate:"required,max=60"`
	Descricao                string `json:"descricao" validate:"required,max=120"`
	CFOP                     string `json:"cfop" validate:"required,len=4,numeric"`
	CodigoNCM                string `json:"codigo_ncm" validate:"required,len=8,numeric"`
	UnidadeComercial         string `json:"unidade_comercial" validate:"required"`
	QuantidadeComercial      string `json:"quantidade_comercial" validate:"required"`
	ValorUnitarioComercial   string `json:"valor_unitario_comercial" validate:"required"`
	UnidadeTributavel        string `json:"unidade_tributavel" validate:"required"`
	QuantidadeTributavel     string `json:"quantidade_tributavel" validate:"required"`
	ValorUnitarioTributavel  string `json:"valor_unitario_tributavel" validate:"required"`
	ValorBruto               string `json:"valor_bruto" validate:"required"`
	ICMSOrigem               int    `json:"icms_origem" validate:"min=0,max=8"`
	ICMSSituacaoTributaria   string `json:"icms_situacao_tributaria" validate:"required"`
	PISSituacaoTributaria    string `json:"pis_situacao_tributaria" validate:"required"`
	COFINSSituacaoTributaria string `json:"cofins_situacao_tributaria" validate:"required"`
}

type paymentPayload struct {
	FormaPagamento string `json:"forma_pagamento" validate:"required"`
	ValorPagamento string `json:"valor_pagamento" validate:"required"`
}

type cancelPayload struct {
	Justificativa string `json:"justificativa"`
}

// nfeResponse is the invoice state returned by every NF-e endpoint
type nfeResponse struct {
	Ref                    string `json:"ref"`
	Status                 string `json:"status"`
	StatusSefaz            string `json:"status_sefaz"`
	MensagemSefaz          string `json:"mensagem_sefaz"`
	Chave                  string `json:"chave"`
	ChaveNFe               string `json:"chave_nfe"`
	Numero                 string `json:"numero"`
	Serie                  string `json:"serie"`
	XML                    string `json:"xml"`
	DANFE                  string `json:"danfe"`
	CaminhoXMLNotaFiscal   string `json:"caminho_xml_nota_fiscal"`
	CaminhoXML             string `json:"caminho_xml"`
	CaminhoXMLCancelamento string `json:"caminho_xml_cancelamento"`
	CaminhoDANFE           string `json:"caminho_danfe"`
	Codigo                 string `json:"codigo"`
	Mensagem               string `json:"mensagem"`
}

func (r nfeResponse) toReport(base string) *fiscal.RemoteReport {
	accessKey := r.ChaveNFe
	if accessKey == "" {
		accessKey = r.Chave
	}
	xmlPath := r.CaminhoXMLNotaFiscal
	if xmlPath == "" {
		xmlPath = r.CaminhoXML
	}
	return &fiscal.RemoteReport{
		Reference:    r.Ref,
		Status:       r.Status,
		SefazStatus:  r.StatusSefaz,
		SefazMessage: r.MensagemSefaz,
		AccessKey:    accessKey,
		Number:       r.Numero,
		Series:       r.Serie,
		XMLBase64:    r.XML,
		PDFBase64:    r.DANFE,
		XMLURL:       fiscal.ResolveLink(base, xmlPath),
		DANFEURL:     fiscal.ResolveLink(base, r.CaminhoDANFE),
		ErrorCode:    r.Codigo,
		ErrorMessage: r.Mensagem,
	}
}
