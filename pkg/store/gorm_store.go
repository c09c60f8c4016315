package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"ideaforge/pkg/domain"
)

const migrateLockID int64 = 84218421

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent replicas do not race the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &AssistantModel{}, &ThreadModel{}, &MessageModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := tx.Exec(`
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'thread_models'
					AND constraint_name = 'thread_models_user_id_fkey'
				) THEN
					ALTER TABLE thread_models
					ADD CONSTRAINT thread_models_user_id_fkey
					FOREIGN KEY (user_id) REFERENCES user_models(id) ON DELETE CASCADE;
				END IF;
				IF NOT EXISTS (
					SELECT 1 FROM information_schema.table_constraints
					WHERE table_schema = 'public'
					AND table_name = 'message_models'
					AND constraint_name = 'message_models_thread_id_fkey'
				) THEN
					ALTER TABLE message_models
					ADD CONSTRAINT message_models_thread_id_fkey
					FOREIGN KEY (thread_id) REFERENCES thread_models(id) ON DELETE CASCADE;
				END IF;
			END $$;
		`).Error; err != nil {
			return fmt.Errorf("ensure foreign keys: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

// users

func (s *GormStore) SaveUser(u domain.User) error {
	model, err := userToModel(u)
	if err != nil {
		return err
	}
	if err := s.db.Save(&model).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get user by email: %w", err)
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count email: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) FindAnonymousUser(deviceID string, platform domain.Platform) (domain.User, bool, error) {
	var model UserModel
	err := s.db.First(&model, "device_id = ? AND platform = ? AND is_anonymous = ?", deviceID, string(platform), true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("find anonymous user: %w", err)
	}
	return userFromModel(model), true, nil
}

// assistants

func (s *GormStore) SaveAssistant(a domain.Assistant) error {
	model, err := assistantToModel(a)
	if err != nil {
		return err
	}
	if err := s.db.Save(&model).Error; err != nil {
		return fmt.Errorf("save assistant: %w", err)
	}
	return nil
}

// GetActiveAssistant resolves an assistant by ID or by appType, active only.
func (s *GormStore) GetActiveAssistant(appID string) (domain.Assistant, bool, error) {
	var model AssistantModel
	err := s.db.First(&model, "(id = ? OR app_type = ?) AND is_active = ?", appID, appID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Assistant{}, false, nil
	}
	if err != nil {
		return domain.Assistant{}, false, fmt.Errorf("get active assistant: %w", err)
	}
	return assistantFromModel(model)
}

func (s *GormStore) GetAssistant(id string) (domain.Assistant, bool, error) {
	var model AssistantModel
	err := s.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Assistant{}, false, nil
	}
	if err != nil {
		return domain.Assistant{}, false, fmt.Errorf("get assistant: %w", err)
	}
	return assistantFromModel(model)
}

func (s *GormStore) ListActiveAssistants() ([]domain.Assistant, error) {
	var models []AssistantModel
	if err := s.db.Where("is_active = ?", true).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	out := make([]domain.Assistant, 0, len(models))
	for _, model := range models {
		assistant, _, err := assistantFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, assistant)
	}
	return out, nil
}

func (s *GormStore) AssistantCount() (int, error) {
	var count int64
	if err := s.db.Model(&AssistantModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count assistants: %w", err)
	}
	return int(count), nil
}

// threads

func (s *GormStore) CreateThread(t domain.Thread) error {
	model, err := threadToModel(t)
	if err != nil {
		return err
	}
	if err := s.db.Create(&model).Error; err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	return nil
}

func (s *GormStore) GetThreadByOwner(id, userID string) (domain.Thread, bool, error) {
	var model ThreadModel
	err := s.db.First(&model, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Thread{}, false, nil
	}
	if err != nil {
		return domain.Thread{}, false, fmt.Errorf("get thread: %w", err)
	}
	thread, err := threadFromModel(model)
	if err != nil {
		return domain.Thread{}, false, err
	}
	return thread, true, nil
}

func (s *GormStore) ListThreadsByUser(userID string) ([]domain.Thread, error) {
	var models []ThreadModel
	if err := s.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return threadsFromModels(models)
}

func (s *GormStore) ListRecentThreads(appType string, limit int) ([]domain.Thread, error) {
	q := s.db.Where("metadata IS NOT NULL")
	if appType != "" {
		q = q.Where("metadata->>'appType' = ?", appType)
	}
	var models []ThreadModel
	if err := q.Order("updated_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list recent threads: %w", err)
	}
	return threadsFromModels(models)
}

func (s *GormStore) FindThreadByShareID(shareID string) (domain.Thread, bool, error) {
	fragment, err := json.Marshal([]map[string]string{{"shareId": shareID}})
	if err != nil {
		return domain.Thread{}, false, err
	}
	var model ThreadModel
	err = s.db.First(&model, "metadata->'userActions'->'shared' @> ?", datatypes.JSON(fragment)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Thread{}, false, nil
	}
	if err != nil {
		return domain.Thread{}, false, fmt.Errorf("find thread by share id: %w", err)
	}
	thread, err := threadFromModel(model)
	if err != nil {
		return domain.Thread{}, false, err
	}
	return thread, true, nil
}

func (s *GormStore) DeleteThread(id, userID string) (bool, error) {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&ThreadModel{})
	if res.Error != nil {
		return false, fmt.Errorf("delete thread: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateThreadMetadata locks the row, applies the mutation, and writes the
// document back so concurrent appends cannot drop each other.
func (s *GormStore) UpdateThreadMetadata(id string, apply func(*domain.ThreadMetadata) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var model ThreadModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock thread: %w", err)
		}
		var meta domain.ThreadMetadata
		if len(model.Metadata) > 0 {
			if err := json.Unmarshal(model.Metadata, &meta); err != nil {
				return fmt.Errorf("decode thread metadata: %w", err)
			}
		}
		if err := apply(&meta); err != nil {
			return err
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode thread metadata: %w", err)
		}
		updates := map[string]any{
			"metadata":   datatypes.JSON(raw),
			"updated_at": time.Now().UTC(),
		}
		if err := tx.Model(&ThreadModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update thread metadata: %w", err)
		}
		return nil
	})
}

// messages

// AppendMessagePair inserts both halves of a chat turn in one transaction so
// a failure leaves no dangling user-only row.
func (s *GormStore) AppendMessagePair(userMsg, assistantMsg domain.Message) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, msg := range []domain.Message{userMsg, assistantMsg} {
			model := messageToModel(msg)
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("append message: %w", err)
			}
		}
		return nil
	})
}

func (s *GormStore) ListCardMessages(threadID, cardID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Where("thread_id = ? AND card_id = ?", threadID, cardID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list card messages: %w", err)
	}
	out := make([]domain.Message, 0, len(models))
	for _, model := range models {
		out = append(out, messageFromModel(model))
	}
	return out, nil
}

// converters

func userToModel(u domain.User) (UserModel, error) {
	model := UserModel{
		ID:              u.ID,
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		IsAnonymous:     u.IsAnonymous,
		DeviceID:        u.DeviceID,
		Platform:        string(u.Platform),
		AuthenticatedAt: u.AuthenticatedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.Email != "" {
		email := u.Email
		model.Email = &email
	}
	return model, nil
}

func userFromModel(model UserModel) domain.User {
	u := domain.User{
		ID:              model.ID,
		Name:            model.Name,
		PasswordHash:    model.PasswordHash,
		IsAnonymous:     model.IsAnonymous,
		DeviceID:        model.DeviceID,
		Platform:        domain.Platform(model.Platform),
		AuthenticatedAt: model.AuthenticatedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if model.Email != nil {
		u.Email = *model.Email
	}
	return u
}

func assistantToModel(a domain.Assistant) (AssistantModel, error) {
	promptConfig, err := json.Marshal(a.PromptConfig)
	if err != nil {
		return AssistantModel{}, fmt.Errorf("encode prompt config: %w", err)
	}
	outputFormat, err := json.Marshal(a.OutputFormat)
	if err != nil {
		return AssistantModel{}, fmt.Errorf("encode output format: %w", err)
	}
	appSettings, err := json.Marshal(a.AppSettings)
	if err != nil {
		return AssistantModel{}, fmt.Errorf("encode app settings: %w", err)
	}
	return AssistantModel{
		ID:           a.ID,
		Name:         a.Name,
		Category:     string(a.Category),
		Description:  a.Description,
		IsActive:     a.IsActive,
		AppType:      a.AppType,
		PromptConfig: promptConfig,
		OutputFormat: outputFormat,
		AppSettings:  appSettings,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

func assistantFromModel(model AssistantModel) (domain.Assistant, bool, error) {
	a := domain.Assistant{
		ID:          model.ID,
		Name:        model.Name,
		Category:    domain.AssistantCategory(model.Category),
		Description: model.Description,
		IsActive:    model.IsActive,
		AppType:     model.AppType,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if len(model.PromptConfig) > 0 {
		if err := json.Unmarshal(model.PromptConfig, &a.PromptConfig); err != nil {
			return domain.Assistant{}, false, fmt.Errorf("decode prompt config: %w", err)
		}
	}
	if len(model.OutputFormat) > 0 {
		if err := json.Unmarshal(model.OutputFormat, &a.OutputFormat); err != nil {
			return domain.Assistant{}, false, fmt.Errorf("decode output format: %w", err)
		}
	}
	if len(model.AppSettings) > 0 {
		if err := json.Unmarshal(model.AppSettings, &a.AppSettings); err != nil {
			return domain.Assistant{}, false, fmt.Errorf("decode app settings: %w", err)
		}
	}
	return a, true, nil
}

func threadToModel(t domain.Thread) (ThreadModel, error) {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return ThreadModel{}, fmt.Errorf("encode thread metadata: %w", err)
	}
	return ThreadModel{
		ID:          t.ID,
		UserID:      t.UserID,
		AssistantID: t.AssistantID,
		Title:       t.Title,
		Metadata:    metadata,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}, nil
}

func threadFromModel(model ThreadModel) (domain.Thread, error) {
	t := domain.Thread{
		ID:          model.ID,
		UserID:      model.UserID,
		AssistantID: model.AssistantID,
		Title:       model.Title,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if len(model.Metadata) > 0 {
		if err := json.Unmarshal(model.Metadata, &t.Metadata); err != nil {
			return domain.Thread{}, fmt.Errorf("decode thread metadata: %w", err)
		}
	}
	return t, nil
}

func threadsFromModels(models []ThreadModel) ([]domain.Thread, error) {
	out := make([]domain.Thread, 0, len(models))
	for _, model := range models {
		thread, err := threadFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, thread)
	}
	return out, nil
}

func messageToModel(m domain.Message) MessageModel {
	return MessageModel{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		CardID:    m.CardID,
		Sender:    string(m.Sender),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func messageFromModel(model MessageModel) domain.Message {
	return domain.Message{
		ID:        model.ID,
		ThreadID:  model.ThreadID,
		CardID:    model.CardID,
		Sender:    domain.MessageSender(model.Sender),
		Content:   model.Content,
		CreatedAt: model.CreatedAt,
	}
}
