package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
	"github.com/noah-isme/lifeguard-api/pkg/export"
)

// ExportFile is a rendered roster export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TrainerStudentService builds a trainer's student roster.
type TrainerStudentService struct {
	links          trainerLinkRepository
	history        historyRepository
	loader         *HistoryLoader
	recycling      *RecyclingService
	classification *ClassificationService
	logger         *zap.Logger
}

// NewTrainerStudentService constructs a TrainerStudentService.
func NewTrainerStudentService(links trainerLinkRepository, history historyRepository, loader *HistoryLoader, recyclingSvc *RecyclingService, classification *ClassificationService, logger *zap.Logger) *TrainerStudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewHistoryLoader(history, HistoryBatchConfig{}, nil, logger)
	}
	return &TrainerStudentService{
		links:          links,
		history:        history,
		loader:         loader,
		recycling:      recyclingSvc,
		classification: classification,
		logger:         logger,
	}
}

type rosterData struct {
	students []models.RosterStudent
	external map[string][]string
}

func (s *TrainerStudentService) load(ctx context.Context, trainerID string) (*rosterData, error) {
	rows, err := s.links.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	now := s.recycling.Now()
	data := &rosterData{students: make([]models.RosterStudent, 0, len(rows)), external: map[string][]string{}}
	var studentIDs []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		data.students = append(data.students, s.toRosterStudent(row, now))
		if _, ok := seen[row.StudentID]; !ok {
			seen[row.StudentID] = struct{}{}
			studentIDs = append(studentIDs, row.StudentID)
		}
	}

	histories, failed := s.loader.Load(ctx, studentIDs)
	if len(failed) > 0 {
		s.logger.Warn("external formations unavailable for part of the roster",
			zap.String("trainer_id", trainerID),
			zap.Int("students", len(failed)))
	}
	for id, formations := range histories {
		for _, f := range formations {
			if f.Title != "" {
				data.external[id] = append(data.external[id], f.Title)
			}
		}
	}
	return data, nil
}

func (s *TrainerStudentService) toRosterStudent(row models.RosterRow, now time.Time) models.RosterStudent {
	info, label := s.recycling.Inspect(row.ToRecord(), now)
	name := strings.TrimSpace(deref(row.FirstName) + " " + deref(row.LastName))
	phoneVisible := row.PhoneVisible != nil && *row.PhoneVisible

	var phone *string
	if phoneVisible && row.Phone != nil && *row.Phone != "" {
		phone = row.Phone
	}

	return models.RosterStudent{
		ID:                  row.ID,
		StudentID:           row.StudentID,
		Name:                name,
		Email:               deref(row.Email),
		Phone:               phone,
		PhoneVisible:        phoneVisible,
		AvatarURL:           row.AvatarURL,
		CertificationIssued: row.CertificationIssued,
		TrainingType:        row.TrainingType,
		TrainingDate:        models.NewDate(row.TrainingDate.Date()),
		Date:                recycling.FormatDate(row.TrainingDate),
		EventKind:           row.ExplicitKind(),
		RecyclingStatus:     info.Status,
		RecyclingLabel:      label,
	}
}

// Roster lists the trainer's students matching filter.
func (s *TrainerStudentService) Roster(ctx context.Context, trainerID string, filter models.RosterFilter) ([]models.RosterStudent, error) {
	filter, err := normalizeRosterFilter(filter)
	if err != nil {
		return nil, err
	}
	data, err := s.load(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return s.filter(data, filter), nil
}

func normalizeRosterFilter(filter models.RosterFilter) (models.RosterFilter, error) {
	filter.Search = strings.ToLower(strings.TrimSpace(filter.Search))
	filter.Brevet = strings.TrimSpace(filter.Brevet)
	switch filter.Tab {
	case "":
		filter.Tab = models.RosterTabActive
	case models.RosterTabActive, models.RosterTabAll:
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "tab must be active or all")
	}
	switch filter.Source {
	case "":
		filter.Source = models.SourceAll
	case models.SourceAll, models.SourceOwn, models.SourceOthers:
	default:
		return filter, appErrors.Clone(appErrors.ErrValidation, "source must be all, own or others")
	}
	return filter, nil
}

func (s *TrainerStudentService) filter(data *rosterData, filter models.RosterFilter) []models.RosterStudent {
	catalog := s.recycling.Catalog()
	brevetKey := ""
	if filter.Brevet != "" {
		brevetKey = catalog.Normalize(filter.Brevet)
	}

	out := make([]models.RosterStudent, 0, len(data.students))
	for _, student := range data.students {
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(student.Name), filter.Search) &&
			!strings.Contains(strings.ToLower(student.Email), filter.Search) &&
			!strings.Contains(strings.ToLower(student.TrainingType), filter.Search) {
			continue
		}
		if filter.Tab == models.RosterTabActive && student.RecyclingStatus == recycling.StatusExpired {
			continue
		}
		if brevetKey != "" {
			ownMatch := catalog.Normalize(student.TrainingType) == brevetKey
			extMatch := false
			for _, title := range data.external[student.StudentID] {
				if catalog.Normalize(title) == brevetKey {
					extMatch = true
					break
				}
			}
			switch filter.Source {
			case models.SourceOwn:
				if !ownMatch {
					continue
				}
			case models.SourceOthers:
				if !extMatch {
					continue
				}
			default:
				if !ownMatch && !extMatch {
					continue
				}
			}
		}
		out = append(out, student)
	}
	return out
}

// Brevets lists the distinct certification titles seen on the roster, in French collation order.
func (s *TrainerStudentService) Brevets(ctx context.Context, trainerID string) ([]string, error) {
	data, err := s.load(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, student := range data.students {
		if student.TrainingType != "" {
			set[student.TrainingType] = struct{}{}
		}
	}
	for _, titles := range data.external {
		for _, title := range titles {
			set[title] = struct{}{}
		}
	}
	brevets := make([]string, 0, len(set))
	for title := range set {
		brevets = append(brevets, title)
	}
	collate.New(language.French).SortStrings(brevets)
	return brevets, nil
}

// Export renders the filtered roster as CSV or PDF.
func (s *TrainerStudentService) Export(ctx context.Context, trainerID string, filter models.RosterFilter, format export.Format) (*ExportFile, error) {
	students, err := s.Roster(ctx, trainerID, filter)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   "Liste des élèves",
		Headers: []string{"Nom", "Email", "Téléphone", "Brevet", "Date", "Statut", "Recyclage"},
		Rows:    make([][]string, 0, len(students)),
	}
	for _, student := range students {
		dataset.Rows = append(dataset.Rows, []string{
			student.Name,
			student.Email,
			deref(student.Phone),
			student.TrainingType,
			student.Date,
			string(student.RecyclingStatus),
			deref(student.RecyclingLabel),
		})
	}

	body, err := export.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("eleves-%s.%s", s.recycling.Now().Format(models.DateLayout), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

// StudentDetail returns the trainer's classified trainings for a student together with the
// student's own formations and their lifecycle.
func (s *TrainerStudentService) StudentDetail(ctx context.Context, trainerID, studentID string) (*models.StudentDetail, error) {
	links, err := s.links.ListByTrainerAndStudent(ctx, trainerID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainings")
	}
	if len(links) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	detail := &models.StudentDetail{StudentID: studentID, Formations: []models.StudentFormation{}}
	formations, err := s.history.ListByUser(ctx, studentID)
	if err != nil {
		s.logger.Warn("student history unavailable, defaulting to diploma",
			zap.String("trainer_id", trainerID),
			zap.String("student_id", studentID),
			zap.Error(err))
		formations = nil
		detail.Degraded = true
	}
	detail.Trainings = s.classification.Classify(links, formations)

	now := s.recycling.Now()
	for _, f := range formations {
		info, label := s.recycling.Inspect(f.ToRecord(), now)
		shown := f.StartDate
		if f.EndDate != nil {
			shown = *f.EndDate
		}
		detail.Formations = append(detail.Formations, models.StudentFormation{
			ID:              f.ID,
			Title:           f.Title,
			Organization:    f.Organization,
			StartDate:       models.NewDate(f.StartDate.Date()),
			Date:            recycling.FormatDate(shown),
			RecyclingStatus: info.Status,
			RecyclingLabel:  label,
		})
	}
	return detail, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
