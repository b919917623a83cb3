package setting

import (
	"context"
	"log/slog"

	settingDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/setting"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*settingDatamodel.CompanySetting, error)
	CreateIfAbsent(ctx context.Context, setting *settingDatamodel.CompanySetting) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]Setting, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get settings from repository", "error", err)
		return nil, err
	}

	result := make([]Setting, 0, len(rows))
	for _, row := range rows {
		result = append(result, *FromDataModel(row))
	}
	return result, nil
}

// Load overlays stored rows on Defaults. Unparseable values are logged
// and the default is kept.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return Settings{}, err
	}

	settings := Defaults()
	for _, row := range rows {
		if !settings.apply(row.Key, row.Value) {
			s.logger.Warn("ignoring malformed company setting", "key", row.Key, "value", row.Value)
		}
	}

	s.logger.Info("loaded company settings",
		"count", len(rows),
		"default_currency", settings.DefaultCurrency)
	return settings, nil
}

// SeedDefaults inserts DefaultRows, keeping any value already stored.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for _, row := range DefaultRows() {
		if err := s.repo.CreateIfAbsent(ctx, ToDataModel(&row)); err != nil {
			s.logger.Error("failed to seed company setting", "key", row.Key, "error", err)
			return err
		}
	}
	return nil
}
