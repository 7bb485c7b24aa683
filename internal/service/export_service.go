package service

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/term-timeline/internal/models"
	"github.com/noah-isme/term-timeline/internal/timeline"
	"github.com/noah-isme/term-timeline/pkg/config"
	"github.com/noah-isme/term-timeline/pkg/export"
)

type fileStorage interface {
	WriteAtomic(filename string, fn func(io.Writer) error) (string, error)
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvWriter interface {
	Write(w io.Writer, data export.Dataset) error
}

type pdfRenderer interface {
	Render(title string, fields []export.Field, data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Filename   string
	SummaryPDF bool
	Constants  []config.Column
	Retention  time.Duration
}

// ExportResult captures the artifacts written for a run.
type ExportResult struct {
	OutputFile  string
	SummaryFile string
	Rows        int
	Unloadable  int
}

// ExportService renders engine output into the target file layout.
type ExportService struct {
	storage fileStorage
	csv     csvWriter
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(storage fileStorage, cfg ExportConfig, logger *zap.Logger, csv csvWriter, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Filename == "" {
		cfg.Filename = "term_timeline.csv"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{storage: storage, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// Generate writes the output file for the run and, when enabled, a PDF
// summary next to it. Files are published atomically.
func (s *ExportService) Generate(runID string, currentPeriod int, res *timeline.Result) (*ExportResult, error) {
	if res == nil {
		return nil, fmt.Errorf("result nil")
	}
	dir := path.Join("runs", runID)
	dataset := RecordDataset(res.Records, s.cfg.Constants)

	out, err := s.storage.WriteAtomic(path.Join(dir, s.cfg.Filename), func(w io.Writer) error {
		return s.csv.Write(w, dataset)
	})
	if err != nil {
		return nil, err
	}
	result := &ExportResult{OutputFile: out, Rows: len(dataset.Rows), Unloadable: countUnloadable(res.Records)}

	if s.cfg.SummaryPDF {
		fields := []export.Field{
			{Label: "Run", Value: runID},
			{Label: "Current period", Value: strconv.Itoa(currentPeriod)},
			{Label: "Entities", Value: strconv.Itoa(res.Stats.Entities)},
			{Label: "Output records", Value: strconv.Itoa(res.Stats.OutputRecords())},
			{Label: "Unloadable records", Value: strconv.Itoa(result.Unloadable)},
			{Label: "Events dropped", Value: strconv.Itoa(res.Stats.EventsDropped)},
			{Label: "Unresolved programs", Value: strconv.Itoa(res.Stats.UnresolvedPrograms)},
			{Label: "Generated at", Value: time.Now().UTC().Format(time.RFC3339)},
		}
		payload, err := s.pdf.Render("Term Timeline Run Summary", fields, StatusDataset(res.Records))
		if err != nil {
			return nil, err
		}
		summary, err := s.storage.Save(path.Join(dir, "summary.pdf"), payload)
		if err != nil {
			return nil, err
		}
		result.SummaryFile = summary
	}
	return result, nil
}

// Open returns a handle to a stored artifact.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Prune removes artifacts older than the retention window. It is a no-op
// when retention is disabled.
func (s *ExportService) Prune() ([]string, error) {
	if s.cfg.Retention <= 0 {
		return nil, nil
	}
	deleted, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Info("pruned run artifacts", zap.Int("files", len(deleted)))
	}
	return deleted, nil
}

var recordHeaders = []string{
	"TARGET_ID", "SOURCE_ID", "PERIOD", "ORIGINAL_PERIOD", "VIEW", "ADMIT_PERIOD",
	"STATUS", "STUDENT_TYPE", "LOAD", "ADMIT_LOAD", "LEVEL",
	"COLLEGE_1", "DEGREE_1", "MAJOR_1", "CONCENTRATION_1", "PROGRAM_1",
	"COLLEGE_2", "DEGREE_2", "MAJOR_2", "CONCENTRATION_2", "PROGRAM_2",
	"CERT_COLLEGE", "CERT_DEGREE", "CERT_MAJOR", "CERT_CONCENTRATION", "CERT_PROGRAM",
	"EVENT_KINDS", "REASON_CODES", "LOADABLE",
}

// RecordDataset projects output records onto the target columns, followed by
// the configured constant columns.
func RecordDataset(records []models.OutputRecord, constants []config.Column) export.Dataset {
	data := export.Dataset{
		Headers: append([]string(nil), recordHeaders...),
		Rows:    make([][]string, 0, len(records)),
	}
	for _, r := range records {
		row := []string{
			formatTarget(r.TargetID), r.SourceID, strconv.Itoa(r.PeriodCode), strconv.Itoa(r.OriginalPeriodCode),
			string(r.View), formatPeriod(r.AdmitPeriod),
			string(r.Status), string(r.StudentType), string(r.Load), string(r.AdmitLoad), string(r.Level),
		}
		row = appendProgram(row, r.Slot1)
		row = appendProgram(row, r.Slot2)
		row = appendProgram(row, r.Certificate)
		row = append(row, r.EventKinds, r.ReasonCodes, formatFlag(r.Loadable()))
		data.Rows = append(data.Rows, row)
	}
	for _, c := range constants {
		data.AppendConstant(c.Name, c.Value)
	}
	return data
}

// StatusDataset counts current-view records by status for each period.
func StatusDataset(records []models.OutputRecord) export.Dataset {
	type counts struct{ active, inactive, graduated, total int }
	byPeriod := make(map[int]*counts)
	for _, r := range records {
		if r.View != models.ViewCurrent {
			continue
		}
		c, ok := byPeriod[r.PeriodCode]
		if !ok {
			c = &counts{}
			byPeriod[r.PeriodCode] = c
		}
		switch r.Status {
		case models.EnrollmentActive:
			c.active++
		case models.EnrollmentInactive:
			c.inactive++
		case models.EnrollmentGraduated:
			c.graduated++
		}
		c.total++
	}
	periods := make([]int, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Ints(periods)

	data := export.Dataset{Headers: []string{"Period", "AS", "IS", "GR", "Total"}}
	for _, p := range periods {
		c := byPeriod[p]
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(p), strconv.Itoa(c.active), strconv.Itoa(c.inactive), strconv.Itoa(c.graduated), strconv.Itoa(c.total),
		})
	}
	return data
}

func appendProgram(row []string, p models.ProgramAssignment) []string {
	return append(row, p.College, p.Degree, p.Major, p.Concentration, p.Program)
}

func countUnloadable(records []models.OutputRecord) int {
	n := 0
	for _, r := range records {
		if !r.Loadable() {
			n++
		}
	}
	return n
}

func formatTarget(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func formatPeriod(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}

func formatFlag(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}
