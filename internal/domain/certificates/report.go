package certificates

import (
	"context"
	"encoding/csv"
	"io"
	"time"
)

var reportHeader = []string{
	"Número do Certificado",
	"Equipamento",
	"Data de Calibração",
	"Data de Validade",
	"Status",
}

const reportDateLayout = "02/01/2006"

// WriteReport escribe los certificados como CSV con etiquetas pt-BR.
func WriteReport(w io.Writer, items []Certificate, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, c := range items {
		row := []string{
			c.CertificateNumber,
			c.EquipmentName,
			formatReportDate(c.CalibrationDate),
			formatReportDate(c.ExpirationDate),
			c.Status(now).Label(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Report lista con el filtro dado y escribe el CSV.
func (s *Service) Report(ctx context.Context, w io.Writer, in ListInput) error {
	items, err := s.List(ctx, in)
	if err != nil {
		return err
	}
	return WriteReport(w, items, s.now())
}

func formatReportDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(reportDateLayout)
}
