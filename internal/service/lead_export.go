package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/agency-admin/internal/domain"
)

const leadSheet = "Leads"

var leadExportHeaders = []string{
	"Nome", "Email", "Telefone", "Empresa", "Cargo", "Website", "Status", "Origem",
	"Prioridade", "Score", "Orçamento", "Prazo", "Tags", "Responsável", "Criado em",
}

func writeLeadWorkbook(leads []domain.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(leadSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2563EB"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range leadExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(leadSheet, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(leadSheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for i, lead := range leads {
		row := []any{
			lead.Name,
			lead.Email,
			deref(lead.Phone),
			deref(lead.Company),
			deref(lead.Position),
			deref(lead.Website),
			string(lead.Status),
			string(lead.Source),
			string(lead.Priority),
			lead.Score,
			budgetCell(lead.Budget),
			deref(lead.Timeline),
			strings.Join(lead.Tags, ", "),
			deref(lead.AssigneeID),
			lead.CreatedAt.Format(time.DateTime),
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(leadSheet, start, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col := range leadExportHeaders {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(leadSheet, name, name, 20); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func budgetCell(b *float64) any {
	if b == nil {
		return ""
	}
	return *b
}
