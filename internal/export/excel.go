package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lawnly/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

var bookingHeaders = []string{
	"ID", "Date", "Start", "End", "Customer", "Provider", "Service",
	"Status", "Price", "Address", "Created At",
}

// Exporter writes booking reports as xlsx workbooks.
type Exporter struct {
	path string
	log  zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "export").Logger()
	}
	return &Exporter{path: path, log: log}
}

// BookingsWorkbook writes the bookings into a new workbook and returns
// the file path. Rows are tinted by booking status.
func (e *Exporter) BookingsWorkbook(bookings []*models.Booking, start, end time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Bookings: %s - %s",
		start.Format("2006-01-02"), end.Format("2006-01-02")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(bookingsSheet, "A1", lastCol+"1")

	e.writeHeaders(f)
	e.writeRows(f, bookings)

	_ = f.SetColWidth(bookingsSheet, "A", "A", 38)
	_ = f.SetColWidth(bookingsSheet, "B", "D", 12)
	_ = f.SetColWidth(bookingsSheet, "E", "G", 24)
	_ = f.SetColWidth(bookingsSheet, "H", lastCol, 16)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.log.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("bookings workbook created")
	return filePath, nil
}

func (e *Exporter) writeHeaders(f *excelize.File) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}
}

func (e *Exporter) writeRows(f *excelize.File, bookings []*models.Booking) {
	for i, booking := range bookings {
		row := i + 3
		values := []interface{}{
			booking.ID,
			booking.BookingDate,
			booking.StartTime,
			booking.EndTime,
			participantName(booking.Customer, booking.CustomerID),
			participantName(booking.Provider, booking.ProviderID),
			serviceName(booking),
			string(booking.Status),
			booking.TotalPrice,
			booking.Address,
			booking.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}

		if styleID, err := e.statusStyle(f, booking.Status); err == nil {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(bookingsSheet, first, last, styleID)
		}
	}
}

func (e *Exporter) statusStyle(f *excelize.File, status models.BookingStatus) (int, error) {
	var color string
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending, models.StatusInProgress:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
}

func participantName(profile *models.Profile, fallback string) string {
	if profile == nil {
		return fallback
	}
	if profile.Provider != nil && profile.Provider.BusinessName != "" {
		return profile.Provider.BusinessName
	}
	if profile.FullName != "" {
		return profile.FullName
	}
	return fallback
}

func serviceName(booking *models.Booking) string {
	if booking.Service != nil && booking.Service.Name != "" {
		return booking.Service.Name
	}
	return booking.ServiceID
}
