package api

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/store/sqlite"
)

// writePayslipPDF renders a one-page A4 payslip.
func writePayslipPDF(w io.Writer, emp *sqlite.Employee, slip *sqlite.PayslipRecord) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Payslip %s %s", emp.ID, slip.Period.Start), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", emp.FullName(), emp.ID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", slip.Period.Start, slip.Period.End))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Pay run: %s", slip.PayRunID))
	pdf.Ln(6)
	if emp.Bank.Account != "" {
		pdf.Cell(0, 7, fmt.Sprintf("Paid to: BSB %s  Account %s", emp.Bank.BSB, maskAccount(emp.Bank.Account)))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	rows := []struct {
		label string
		value decimal.Decimal
		money bool
	}{
		{"Normal hours", slip.NormalHours, false},
		{"Overtime hours", slip.OvertimeHours, false},
		{"Hourly rate", emp.BaseHourlyRate, true},
		{"Gross pay", slip.Gross, true},
		{"Tax withheld", slip.Tax, true},
		{"Net pay", slip.Net, true},
		{"Superannuation", slip.Super, true},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(80, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		value := row.value.StringFixed(2)
		if row.money {
			value = "$" + value
		}
		pdf.CellFormat(80, 7, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, value, "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 6, "Superannuation is paid by the employer in addition to net pay.")

	return pdf.Output(w)
}

// maskAccount keeps the last 4 digits of an account number.
func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	masked := make([]byte, len(account))
	for i := range masked {
		if i < len(account)-4 {
			masked[i] = '*'
		} else {
			masked[i] = account[i]
		}
	}
	return string(masked)
}
