package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/models"
	"github.com/openvol/portal-api/pkg/export"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

type slotLister interface {
	List(ctx context.Context, filter models.SlotFilter) ([]models.Slot, error)
}

// ExportService renders the signup roster as CSV or PDF downloads.
type ExportService struct {
	slots slotLister
	csv   *export.CSVExporter
	pdf   *export.PDFExporter
	log   *zap.Logger
}

func NewExportService(slots slotLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		slots: slots,
		csv:   export.NewCSVExporter(),
		pdf:   export.NewPDFExporter(),
		log:   logger,
	}
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Roster renders every slot, taken or open, in the requested format
// ("csv" or "pdf").
func (s *ExportService) Roster(ctx context.Context, format string) (*ExportFile, error) {
	slots, err := s.slots.List(ctx, models.SlotFilter{IncludeTaken: true})
	if err != nil {
		return nil, err
	}
	data := rosterDataset(slots)

	stamp := time.Now().Format("2006-01-02")
	switch strings.ToLower(format) {
	case "csv":
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(data, "Volunteer Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("roster-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func rosterDataset(slots []models.Slot) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Event", "Location", "Date", "Start", "End", "Hours", "Contact", "Volunteer", "Email", "Status"},
	}
	for _, slot := range slots {
		status := "open"
		if strings.TrimSpace(slot.Completed) != "" {
			status = "completed"
		} else if slot.Taken() {
			status = "reserved"
		}
		data.Rows = append(data.Rows, map[string]string{
			"Event":     slot.Event,
			"Location":  slot.Location,
			"Date":      slot.StartAt.Format("2006-01-02"),
			"Start":     slot.StartAt.Format("15:04"),
			"End":       slot.EndAt.Format("15:04"),
			"Hours":     strconv.FormatFloat(slot.Hours, 'f', -1, 64),
			"Contact":   slot.Contact,
			"Volunteer": strings.TrimSpace(slot.FirstName + " " + slot.LastName),
			"Email":     slot.Email,
			"Status":    status,
		})
	}
	return data
}
