package service

import (
	"errors"
	"fmt"
	"strings"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TemplateService manages shift templates, their shifts and work sections.
type TemplateService struct {
	templates repository.ShiftTemplateRepository
	shifts    repository.TemplateShiftRepository
	sections  repository.WorkSectionRepository
	detector  *ConflictDetector
	strict    bool
	logger    *logrus.Logger
}

// NewTemplateService builds the service. With strictOverlap set, shifts of
// the same template and day may not overlap.
func NewTemplateService(
	templates repository.ShiftTemplateRepository,
	shifts repository.TemplateShiftRepository,
	sections repository.WorkSectionRepository,
	detector *ConflictDetector,
	strictOverlap bool,
) *TemplateService {
	return &TemplateService{
		templates: templates,
		shifts:    shifts,
		sections:  sections,
		detector:  detector,
		strict:    strictOverlap,
		logger:    newLogger(),
	}
}

func requireManager(actor *models.User) error {
	if actor == nil {
		return ErrArgumentRequired
	}
	if !actor.CanManageRosters() {
		return ErrForbidden
	}
	return nil
}

func (s *TemplateService) owned(actor *models.User, templateID uint) (*models.ShiftTemplate, error) {
	template, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil || template.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}
	return template, nil
}

func (s *TemplateService) List(actor *models.User) ([]*models.ShiftTemplate, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.templates.ListByOwner(actor.TenantID())
}

// Get returns the template with its shifts ordered by day and start.
func (s *TemplateService) Get(actor *models.User, templateID uint) (*models.ShiftTemplate, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	template, err := s.templates.GetWithShifts(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil || template.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}
	return template, nil
}

func (s *TemplateService) Create(actor *models.User, template *models.ShiftTemplate) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if template == nil {
		return ErrArgumentRequired
	}

	template.ID = 0
	template.UserID = actor.TenantID()
	if template.WeekType == "" {
		template.WeekType = models.WeekTypeWeekly
	}
	if err := newValidationError(template.Validate()); err != nil {
		return err
	}

	if err := s.templates.Create(template); err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"shift_template_id": template.ID,
		"owner_id":          template.UserID,
	}).Info("Shift template created")
	return nil
}

// Update replaces the editable fields of an existing template.
func (s *TemplateService) Update(actor *models.User, template *models.ShiftTemplate) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if template == nil {
		return ErrArgumentRequired
	}

	existing, err := s.owned(actor, template.ID)
	if err != nil {
		return err
	}

	template.UserID = existing.UserID
	template.CreatedAt = existing.CreatedAt
	if template.WeekType == "" {
		template.WeekType = existing.WeekType
	}
	if err := newValidationError(template.Validate()); err != nil {
		return err
	}

	if err := s.templates.Update(template); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes the template and its shifts. Dated rosters generated from
// it are kept and lose the link.
func (s *TemplateService) Delete(actor *models.User, templateID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if _, err := s.owned(actor, templateID); err != nil {
		return err
	}
	return s.templates.Delete(templateID)
}

func (s *TemplateService) checkSection(actor *models.User, sectionID *uint) error {
	if sectionID == nil {
		return nil
	}
	section, err := s.sections.GetByID(*sectionID)
	if err != nil {
		return err
	}
	if section == nil || section.UserID != actor.TenantID() {
		fields := models.FieldErrors{}
		fields.Add("work_section_id", "does not exist")
		return newValidationError(fields)
	}
	return nil
}

func (s *TemplateService) checkOverlap(shift *models.TemplateShift) error {
	if !s.strict {
		return nil
	}
	start, end := TemplateInterval(shift.StartTime, shift.EndTime)
	conflicts, err := s.detector.FindOverlaps(TemplateScope(shift.ShiftTemplateID), shift.DayOfWeek, nil, start, end, shift.ID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// AddShift adds a slot to the template. Overnight slots must last 1 to 23 hours.
func (s *TemplateService) AddShift(actor *models.User, templateID uint, shift *models.TemplateShift) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if shift == nil {
		return ErrArgumentRequired
	}
	if _, err := s.owned(actor, templateID); err != nil {
		return err
	}

	shift.ID = 0
	shift.ShiftTemplateID = templateID
	if err := newValidationError(shift.Validate()); err != nil {
		return err
	}
	if err := s.checkSection(actor, shift.WorkSectionID); err != nil {
		return err
	}
	if err := s.checkOverlap(shift); err != nil {
		return err
	}

	if err := s.shifts.Create(shift); err != nil {
		return fmt.Errorf("create template shift: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"shift_template_id": templateID,
		"template_shift_id": shift.ID,
		"day_of_week":       shift.DayOfWeek.String(),
	}).Info("Template shift added")
	return nil
}

func (s *TemplateService) UpdateShift(actor *models.User, shift *models.TemplateShift) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if shift == nil {
		return ErrArgumentRequired
	}

	existing, err := s.shifts.GetByID(shift.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := s.owned(actor, existing.ShiftTemplateID); err != nil {
		return err
	}

	shift.ShiftTemplateID = existing.ShiftTemplateID
	shift.CreatedAt = existing.CreatedAt
	if err := newValidationError(shift.Validate()); err != nil {
		return err
	}
	if err := s.checkSection(actor, shift.WorkSectionID); err != nil {
		return err
	}
	if err := s.checkOverlap(shift); err != nil {
		return err
	}

	if err := s.shifts.Update(shift); err != nil {
		return fmt.Errorf("update template shift: %w", err)
	}
	return nil
}

func (s *TemplateService) DeleteShift(actor *models.User, shiftID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	existing, err := s.shifts.GetByID(shiftID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	if _, err := s.owned(actor, existing.ShiftTemplateID); err != nil {
		return err
	}
	return s.shifts.Delete(shiftID)
}

func (s *TemplateService) ListSections(actor *models.User) ([]*models.WorkSection, error) {
	if actor == nil {
		return nil, ErrArgumentRequired
	}
	return s.sections.ListByOwner(actor.TenantID())
}

// CreateSection adds a work section; names are unique per owner.
func (s *TemplateService) CreateSection(actor *models.User, name, color string) (*models.WorkSection, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	section := &models.WorkSection{
		UserID: actor.TenantID(),
		Name:   strings.TrimSpace(name),
		Color:  color,
	}
	if err := s.validateSection(section); err != nil {
		return nil, err
	}

	if err := s.sections.Create(section); err != nil {
		return nil, sectionSaveError(err)
	}
	return section, nil
}

func (s *TemplateService) RenameSection(actor *models.User, sectionID uint, name, color string) (*models.WorkSection, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	section, err := s.sections.GetByID(sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil || section.UserID != actor.TenantID() {
		return nil, ErrNotFound
	}

	section.Name = strings.TrimSpace(name)
	if color != "" {
		section.Color = color
	}
	if err := s.validateSection(section); err != nil {
		return nil, err
	}

	if err := s.sections.Update(section); err != nil {
		return nil, sectionSaveError(err)
	}
	return section, nil
}

// DeleteSection removes the section; shifts tagged with it become untagged.
func (s *TemplateService) DeleteSection(actor *models.User, sectionID uint) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	section, err := s.sections.GetByID(sectionID)
	if err != nil {
		return err
	}
	if section == nil || section.UserID != actor.TenantID() {
		return ErrNotFound
	}
	return s.sections.Delete(sectionID)
}

func (s *TemplateService) validateSection(section *models.WorkSection) error {
	fields := models.FieldErrors{}
	if section.Name == "" {
		fields.Add("name", "can't be blank")
		return newValidationError(fields)
	}
	other, err := s.sections.GetByOwnerAndName(section.UserID, section.Name)
	if err != nil {
		return err
	}
	if other != nil && other.ID != section.ID {
		fields.Add("name", "has already been taken")
	}
	return newValidationError(fields)
}

func sectionSaveError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fields := models.FieldErrors{}
		fields.Add("name", "has already been taken")
		return newValidationError(fields)
	}
	return fmt.Errorf("save work section: %w", err)
}
