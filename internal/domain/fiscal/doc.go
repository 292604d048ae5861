// Package fiscal models Brazilian electronic invoices (NF-e) issued through
// an external invoicing API. The remote fiscal authority is the source of
// truth; a Document is the local cache of its latest report.
package fiscal
