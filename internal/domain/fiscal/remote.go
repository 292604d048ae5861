package fiscal

import (
	"net/url"
	"strings"
)

// RemoteReport is what the invoicing API says about one invoice
type RemoteReport struct {
	Reference    string
	Status       string
	SefazStatus  string
	SefazMessage string
	AccessKey    string
	Number       string
	Series       string
	XMLBase64    string
	PDFBase64    string
	XMLURL       string
	DANFEURL     string
	ErrorCode    string
	ErrorMessage string
}

// sefazCodes maps the SEFAZ result codes (cStat) that settle an invoice
var sefazCodes = map[string]Status{
	"100": StatusAuthorized,
	"150": StatusAuthorized,
	"101": StatusCancelled,
	"135": StatusCancelled,
	"151": StatusCancelled,
	"155": StatusCancelled,
	"110": StatusDenied,
	"301": StatusDenied,
	"302": StatusDenied,
	"303": StatusDenied,
}

// RawStatus is the vendor status, falling back to the SEFAZ status field
func (r RemoteReport) RawStatus() string {
	if strings.TrimSpace(r.Status) != "" {
		return r.Status
	}
	return r.SefazStatus
}

// LocalStatus normalizes the report's raw status. Without a vendor status a
// known SEFAZ code decides.
func (r RemoteReport) LocalStatus() Status {
	if strings.TrimSpace(r.Status) == "" {
		if s, ok := sefazCodes[strings.TrimSpace(r.SefazStatus)]; ok {
			return s
		}
	}
	return NormalizeStatus(r.RawStatus())
}

// ResolveStatus is the status a document in current takes after the report.
// Without a vendor status, an empty or unknown numeric SEFAZ code leaves it
// as is.
func (r RemoteReport) ResolveStatus(current Status) Status {
	if strings.TrimSpace(r.Status) == "" {
		code := strings.TrimSpace(r.SefazStatus)
		if _, ok := sefazCodes[code]; !ok && isNumeric(code) {
			return current
		}
	}
	return r.LocalStatus()
}

func isNumeric(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ResolveLink turns a document path returned by the API ("/arquivos/...")
// into an absolute URL against base. Absolute links are returned unchanged.
func ResolveLink(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return path
	}
	return b.ResolveReference(ref).String()
}
