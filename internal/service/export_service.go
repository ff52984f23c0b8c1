package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/cloudinary"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Statement is a read-only projection of one party's campaign payments.
type Statement struct {
	Role         string
	ProfileID    uint
	Transactions []models.Transaction
	GeneratedAt  time.Time
}

// Totals sums the settled transactions only.
func (st *Statement) Totals() (total, commission, influencer decimal.Decimal) {
	for _, t := range st.Transactions {
		if t.PaymentStatus != domain.PaymentStatusCompleted {
			continue
		}
		total = total.Add(t.TotalAmount)
		commission = commission.Add(t.PlatformCommission)
		influencer = influencer.Add(t.InfluencerAmount)
	}
	return total, commission, influencer
}

// Filename is the download name for the statement in the given format.
func (st *Statement) Filename(format string) string {
	return fmt.Sprintf("%s_%d_statement_%s.%s", strings.ToLower(st.Role), st.ProfileID, st.GeneratedAt.Format("20060102"), format)
}

var statementHeaders = []string{
	"Reference", "Date", "Campaign", "Total", "Commission", "Influencer Amount",
	"Currency", "Payment Status", "Payout Channel", "Payout Status",
}

func statementRow(t models.Transaction) []string {
	return []string{
		t.PaymentReference,
		t.CreatedAt.Format("2006-01-02 15:04"),
		fmt.Sprintf("%d", t.CampaignID),
		t.TotalAmount.StringFixed(models.MoneyPlaces),
		t.PlatformCommission.StringFixed(models.MoneyPlaces),
		t.InfluencerAmount.StringFixed(models.MoneyPlaces),
		t.Currency,
		t.PaymentStatus,
		t.PayoutChannel,
		t.InfluencerPayoutStatus,
	}
}

type ExportService struct {
	store  *repository.Store
	cloud  cloudinary.Client
	folder string
}

// NewExportService builds the exporter; cloud may be nil, which disables
// ArchivePDF.
func NewExportService(store *repository.Store, cloud cloudinary.Client, folder string) *ExportService {
	return &ExportService{store: store, cloud: cloud, folder: folder}
}

func (s *ExportService) Statement(ctx context.Context, role string, profileID uint) (*Statement, error) {
	store := s.store.WithContext(ctx)
	var rows []models.Transaction
	var err error
	switch role {
	case domain.RoleBrand:
		rows, err = store.Transactions.AllByBrand(profileID)
	case domain.RoleInfluencer:
		rows, err = store.Transactions.AllByInfluencer(profileID)
	default:
		return nil, apperror.Validation("role must be brand or influencer")
	}
	if err != nil {
		return nil, err
	}
	return &Statement{Role: role, ProfileID: profileID, Transactions: rows, GeneratedAt: time.Now()}, nil
}

func roleLabel(role string) string {
	if role == domain.RoleBrand {
		return "Brand"
	}
	return "Influencer"
}

// ContentType returns the MIME type for format, or "" if format is unknown.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return ""
}

func (s *ExportService) Write(w io.Writer, format string, st *Statement) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, st)
	case FormatPDF:
		return WritePDF(w, st)
	case FormatXLSX:
		return WriteXLSX(w, st)
	}
	return apperror.Validation("format must be csv, pdf or xlsx")
}

func WriteCSV(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statementHeaders); err != nil {
		return err
	}
	for _, t := range st.Transactions {
		if err := cw.Write(statementRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WritePDF(w io.Writer, st *Statement) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "BrandLink - Payment Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s #%d  |  Generated %s", roleLabel(st.Role), st.ProfileID, st.GeneratedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	widths := []float64{62, 28, 20, 24, 24, 28, 16, 26, 26, 22}
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range statementHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, t := range st.Transactions {
		for i, v := range statementRow(t) {
			align := "L"
			if i >= 3 && i <= 5 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	total, commission, influencer := st.Totals()
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Settled totals")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	for _, line := range [][2]string{
		{"Total paid", total.StringFixed(models.MoneyPlaces)},
		{"Platform commission", commission.StringFixed(models.MoneyPlaces)},
		{"Influencer payouts", influencer.StringFixed(models.MoneyPlaces)},
	} {
		pdf.CellFormat(50, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, line[1], "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

func WriteXLSX(w io.Writer, st *Statement) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Statement")
	if err != nil {
		return err
	}
	bold := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	bold.Font = *font

	header := sheet.AddRow()
	for _, h := range statementHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}
	for _, t := range st.Transactions {
		row := sheet.AddRow()
		for _, v := range statementRow(t) {
			row.AddCell().SetString(v)
		}
	}

	sheet.AddRow()
	total, commission, influencer := st.Totals()
	for _, line := range [][2]string{
		{"Total paid", total.StringFixed(models.MoneyPlaces)},
		{"Platform commission", commission.StringFixed(models.MoneyPlaces)},
		{"Influencer payouts", influencer.StringFixed(models.MoneyPlaces)},
	} {
		row := sheet.AddRow()
		label := row.AddCell()
		label.SetString(line[0])
		label.SetStyle(bold)
		row.AddCell().SetString(line[1])
	}
	return file.Write(w)
}

// ArchivePDF renders the statement as PDF, stores it on Cloudinary and
// returns the URL.
func (s *ExportService) ArchivePDF(ctx context.Context, st *Statement) (string, error) {
	if s.cloud == nil {
		return "", apperror.New(http.StatusServiceUnavailable, "statement archive is not configured", nil)
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, st); err != nil {
		return "", fmt.Errorf("render pdf: %w", err)
	}
	publicID := strings.TrimSuffix(st.Filename(FormatPDF), "."+FormatPDF)
	url, err := s.cloud.UploadRaw(ctx, &buf, s.folder, publicID)
	if err != nil {
		return "", apperror.Gateway("could not archive statement", err)
	}
	return url, nil
}
