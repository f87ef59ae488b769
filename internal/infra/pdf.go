package infra

// pdf.go — comprobante PDF rendering with go-pdf/fpdf.
// Renders exclusively from the immutable snapshot stored on the Venta, so a
// PDF regenerated months later matches the printed original even if the
// catalog changed.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jos3lo89/ice-mankora-backend/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerarComprobantePDF writes a thermal-receipt-style PDF for a Venta and
// returns the absolute path of the generated file.
func GenerarComprobantePDF(venta *model.Venta, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	var items []model.VentaItemSnapshot
	if err := json.Unmarshal(venta.ItemsSnapshot, &items); err != nil {
		return "", fmt.Errorf("pdf: decode items snapshot: %w", err)
	}
	var meta model.VentaMetadata
	if len(venta.Metadata) > 0 {
		_ = json.Unmarshal(venta.Metadata, &meta)
	}

	fileName := fmt.Sprintf("%s.pdf", venta.NumeroComprobante)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm wide — close to 80mm thermal paper minus margins
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 140},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 6, venta.EmpresaRazonSocial, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "RUC "+venta.EmpresaRUC, "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 4, venta.EmpresaDireccion, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, venta.Tipo.Descripcion(), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, venta.NumeroComprobante, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.FechaEmision.Format("02/01/2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(1)

	// ── Cliente ──────────────────────────────────────────────────────────────
	if venta.ClienteNumDoc != "-" {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(contentW, 4, "Cliente: "+venta.ClienteRazonSocial, "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 4, "Doc: "+venta.ClienteNumDoc, "", 1, "L", false, 0, "")
	}
	if meta.Mesa != "" {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Mesa %s — Pedido #%d", meta.Mesa, meta.Orden), "", 1, "L", false, 0, "")
	}
	pdf.Ln(1)

	// ── Items ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW*0.55, 4, "Descripción", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.12, 4, "Cant", "B", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.33, 4, "Importe", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, it := range items {
		pdf.CellFormat(contentW*0.55, 4, it.Descripcion, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.12, 4, fmt.Sprintf("%d", it.Cantidad), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.33, 4, it.TotalItem.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(1)

	// ── Totales ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW*0.67, 4, "Op. Gravada", "T", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.33, 4, "S/ "+venta.MontoGravado.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.CellFormat(contentW*0.67, 4, "IGV (18%)", "", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.33, 4, "S/ "+venta.IGV.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW*0.67, 5, "TOTAL", "", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.33, 5, "S/ "+venta.PrecioVentaTotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.Ln(1)

	// ── Pago ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, "Pago: "+venta.MetodoPago, "", 1, "L", false, 0, "")
	if venta.MontoPagado != nil && venta.Vuelto != nil {
		pdf.CellFormat(contentW, 4,
			fmt.Sprintf("Recibido S/ %s — Vuelto S/ %s",
				venta.MontoPagado.StringFixed(2), venta.Vuelto.StringFixed(2)),
			"", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 6)
	pdf.CellFormat(contentW, 4, "Gracias por su visita", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
