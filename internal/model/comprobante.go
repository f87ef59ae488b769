package model

import (
	"fmt"

	"github.com/jos3lo89/ice-mankora-backend/internal/apierror"
)

// TipoComprobante is the closed set of fiscal document types a sale can emit.
// Each variant carries its fixed serie code and its required buyer fields,
// replacing scattered switch statements across validation and numbering.
type TipoComprobante string

const (
	ComprobanteTicket  TipoComprobante = "TICKET"
	ComprobanteBoleta  TipoComprobante = "BOLETA"
	ComprobanteFactura TipoComprobante = "FACTURA"
)

// Valido reports whether t is a known comprobante type.
func (t TipoComprobante) Valido() bool {
	switch t {
	case ComprobanteTicket, ComprobanteBoleta, ComprobanteFactura:
		return true
	}
	return false
}

// Serie returns the fixed serie prefix for the type. Together with the
// correlativo it uniquely identifies a document per type.
func (t TipoComprobante) Serie() string {
	switch t {
	case ComprobanteFactura:
		return "F001"
	case ComprobanteBoleta:
		return "B001"
	default:
		return "T001"
	}
}

// Descripcion returns the printable document title.
func (t TipoComprobante) Descripcion() string {
	switch t {
	case ComprobanteFactura:
		return "FACTURA ELECTRÓNICA"
	case ComprobanteBoleta:
		return "BOLETA DE VENTA ELECTRÓNICA"
	default:
		return "TICKET INTERNO"
	}
}

// RequiereCliente reports whether the buyer must be persisted/upserted for
// this document type. Internal tickets never create client records.
func (t TipoComprobante) RequiereCliente() bool {
	return t != ComprobanteTicket
}

// ValidarCliente enforces the per-type buyer identity rules:
//   - FACTURA: 11-digit RUC and razón social are mandatory.
//   - BOLETA: identity is optional, but a supplied document must be an
//     8-digit DNI.
//   - TICKET: no buyer identity.
func (t TipoComprobante) ValidarCliente(docNumero, nombre string) error {
	switch t {
	case ComprobanteFactura:
		if len(docNumero) != 11 {
			return apierror.Validation("Para Factura se requiere RUC de 11 dígitos")
		}
		if nombre == "" {
			return apierror.Validation("Falta la Razón Social para Factura")
		}
	case ComprobanteBoleta:
		if docNumero != "" && len(docNumero) != 8 {
			return apierror.Validation("El DNI debe tener 8 dígitos")
		}
	}
	return nil
}

// NumeroComprobante renders the document identifier, e.g. "B001-00000042".
func NumeroComprobante(serie string, correlativo int64) string {
	return fmt.Sprintf("%s-%08d", serie, correlativo)
}
