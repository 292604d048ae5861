package fiscal

import (
	"fmt"
	"strings"
)

// operatorMessages translates invoicing API, SEFAZ and shipment integration
// codes into the text shown to back-office operators.
var operatorMessages = map[string]string{
	// Invoicing API
	"requisicao_invalida":    "A requisição enviada para emissão da nota é inválida. Revise os dados do pedido.",
	"permissao_negada":       "O token da API fiscal não tem permissão para esta operação. Verifique as credenciais.",
	"nao_encontrado":         "Nota fiscal não encontrada na API fiscal.",
	"empresa_nao_habilitada": "A empresa não está habilitada para emitir NF-e neste ambiente.",
	"certificado_vencido":    "O certificado digital da empresa está vencido. Envie um novo certificado.",
	"nfe_cancelada":          "Esta nota fiscal já foi cancelada.",
	"nfe_nao_autorizada":     "A nota fiscal ainda não foi autorizada pela SEFAZ.",
	"nfe_autorizada":         "A nota fiscal já está autorizada; não é possível reemitir.",
	"em_processamento":       "A nota fiscal está em processamento na SEFAZ. Aguarde e sincronize novamente.",
	"erro_validacao_schema":  "O XML da nota não passou na validação do schema. Revise NCM, CFOP e dados do destinatário.",
	"limite_requisicoes":     "Limite de requisições da API fiscal atingido. Tente novamente em alguns minutos.",
	"api_indisponivel":       "A API fiscal está indisponível no momento. A nota será sincronizada automaticamente.",
	"justificativa_invalida": "A justificativa do cancelamento deve ter entre 15 e 255 caracteres.",
	"emissao_em_andamento":   "Já existe uma emissão em andamento para este pedido.",
	"pedido_cancelado":       "Pedidos cancelados ou devolvidos não podem ter nota fiscal emitida.",
	"status_nao_aceito":      "O banco de dados recusou o status da nota fiscal. Contate o suporte.",
	"sefaz_100":              "Autorizado o uso da NF-e.",
	"sefaz_110":              "Uso denegado pela SEFAZ.",
	"sefaz_135":              "Evento registrado e vinculado à NF-e.",
	"sefaz_204":              "Duplicidade de NF-e: já existe uma nota com este número e série.",
	"sefaz_218":              "A NF-e já está cancelada na base da SEFAZ.",
	"sefaz_220":              "Prazo de cancelamento expirado para esta NF-e.",
	"sefaz_225":              "Falha no schema XML da NF-e.",
	"sefaz_301":              "Uso denegado: irregularidade fiscal do emitente.",
	"sefaz_302":              "Uso denegado: irregularidade fiscal do destinatário.",
	"sefaz_539":              "Duplicidade de NF-e com diferença na chave de acesso.",
	"sefaz_778":              "NCM informado não existe na tabela vigente.",
	// Shipment integration
	"envio_nao_encontrado":        "Envio não encontrado no marketplace.",
	"envio_nf_obrigatoria":        "O marketplace exige a nota fiscal antes de liberar a etiqueta de envio.",
	"envio_chave_invalida":        "A chave de acesso da nota foi recusada pelo marketplace.",
	"envio_ja_despachado":         "O pedido já foi despachado; não é possível anexar outra nota.",
	"envio_etiqueta_indisponivel": "A etiqueta de envio ainda não está disponível.",
}

// OperatorMessage returns the operator-facing text for an integration error
// code. SEFAZ numeric codes may be given bare ("204") or prefixed ("sefaz_204").
func OperatorMessage(code string) string {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return "Erro desconhecido na integração fiscal."
	}
	if msg, ok := operatorMessages[key]; ok {
		return msg
	}
	if msg, ok := operatorMessages["sefaz_"+key]; ok {
		return msg
	}
	return fmt.Sprintf("Erro na integração fiscal (código %s).", code)
}

// HasOperatorMessage reports whether the code is in the dictionary
func HasOperatorMessage(code string) bool {
	key := strings.ToLower(strings.TrimSpace(code))
	_, ok := operatorMessages[key]
	if !ok {
		_, ok = operatorMessages["sefaz_"+key]
	}
	return ok
}
