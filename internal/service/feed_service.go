package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"factoryfeed/internal/middleware"
	"factoryfeed/internal/models"
	"factoryfeed/internal/observability"
	"factoryfeed/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Alert types beyond the simulator's fault statuses.
const (
	AlertMaintenance = "maintenance"
	AlertRecovered   = "recovered"
)

// FeedService cross-posts factory events into the social feed as the system identity.
type FeedService struct {
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	factories *FactoryService
	events    EventSink

	systemMu sync.Mutex
	systemID uint
}

func NewFeedService(userRepo repository.UserRepository, postRepo repository.PostRepository, factories *FactoryService, events EventSink) *FeedService {
	if events == nil {
		events = NopSink{}
	}
	return &FeedService{userRepo: userRepo, postRepo: postRepo, factories: factories, events: events}
}

// SystemUser returns the factory identity, creating it on first use. Its
// password is random and never disclosed; Login refuses it regardless.
func (s *FeedService) SystemUser(ctx context.Context) (*models.User, error) {
	s.systemMu.Lock()
	defer s.systemMu.Unlock()

	if s.systemID != 0 {
		return s.userRepo.GetByID(ctx, s.systemID)
	}

	user, err := s.userRepo.GetByUsername(ctx, models.SystemUsername)
	if err != nil {
		return nil, err
	}
	if user == nil {
		hash, herr := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if herr != nil {
			return nil, models.NewInternalError(herr)
		}
		created := &models.User{
			Username:     models.SystemUsername,
			Password:     string(hash),
			ProfileEmoji: "🏭",
		}
		cerr := s.userRepo.Create(ctx, created)
		switch {
		case cerr == nil:
			user = created
		case models.IsCode(cerr, models.CodeConflict):
			if user, err = s.userRepo.GetByUsername(ctx, models.SystemUsername); err != nil {
				return nil, err
			}
			if user == nil {
				return nil, models.NewInternalError(fmt.Errorf("system user vanished after conflict"))
			}
		default:
			return nil, cerr
		}
	}
	s.systemID = user.ID
	return user, nil
}

// publish writes a system post and announces it. A zero createdAt means now.
func (s *FeedService) publish(ctx context.Context, content string, createdAt time.Time) (*models.Post, error) {
	system, err := s.SystemUser(ctx)
	if err != nil {
		return nil, err
	}
	post := &models.Post{UserID: system.ID, Content: content, CreatedAt: createdAt}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	created, err := s.postRepo.GetByID(ctx, post.ID, 0)
	if err != nil {
		return nil, err
	}
	decorate(created)
	observability.PostsCreated.WithLabelValues("factory").Inc()
	s.events.PostCreated(ctx, created)
	return created, nil
}

// IntegrateLatest mirrors the most recent factory log entry into the feed.
// The post carries the entry's timestamp, and an entry is skipped when the
// system identity already posted within that same second. It returns
// created=false when there was nothing new to post.
func (s *FeedService) IntegrateLatest(ctx context.Context) (*models.Post, bool, error) {
	entry, err := s.factories.LatestFactoryPost(ctx)
	if err != nil || entry == nil {
		return nil, false, err
	}

	system, err := s.SystemUser(ctx)
	if err != nil {
		return nil, false, err
	}
	second := entry.CreatedAt.Truncate(time.Second)
	exists, err := s.postRepo.ExistsByUserBetween(ctx, system.ID, second, second.Add(time.Second))
	if err != nil {
		return nil, false, err
	}
	if exists {
		return nil, false, nil
	}

	content := entry.Message
	if len(entry.StatusData) > 0 {
		var snap models.StatusSnapshot
		if jerr := json.Unmarshal(entry.StatusData, &snap); jerr == nil && snap.Status != "" {
			payload := &models.Payload{
				Type:      models.PayloadFactoryStatus,
				Title:     entry.FactoryName + " live status",
				Data:      models.SnapshotData(snap),
				Status:    string(snap.Status),
				Timestamp: snap.Timestamp.Format(time.RFC3339),
				FactoryID: entry.FactoryID,
				Priority:  entry.Priority,
			}
			if encoded, eerr := payload.Encode(); eerr == nil {
				content = encoded
			}
		}
	}

	post, err := s.publish(ctx, content, entry.CreatedAt)
	if err != nil {
		return nil, false, err
	}
	return post, true, nil
}

// CreateFactoryStatusPost posts the current reading of one factory.
func (s *FeedService) CreateFactoryStatusPost(ctx context.Context, factoryID string) (*models.Post, error) {
	snap, err := s.factories.Snapshot(ctx, factoryID)
	if err != nil {
		return nil, err
	}
	priority := models.PriorityNormal
	if snap.Status.IsAbnormal() {
		priority = models.PriorityHigh
	}
	payload := &models.Payload{
		Type:      models.PayloadFactoryStatus,
		Title:     snap.FactoryName + " current status",
		Data:      models.SnapshotData(*snap),
		Status:    string(snap.Status),
		Timestamp: snap.Timestamp.Format(time.RFC3339),
		FactoryID: factoryID,
		Priority:  priority,
	}
	content, err := payload.Encode()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.publish(ctx, content, time.Time{})
}

// CreateEmergencyAlertPost posts a templated alert. Overheat alerts carry a
// factory_emergency payload instead of text. Every alert is also fanned out
// as a realtime factory_alert event.
func (s *FeedService) CreateEmergencyAlertPost(ctx context.Context, factoryID, alertType string) (*models.Post, error) {
	snap, err := s.factories.Snapshot(ctx, factoryID)
	if err != nil {
		return nil, err
	}

	priority := models.PriorityHigh
	var content string
	if alertType == string(models.FactoryStatusOverheat) {
		priority = models.PriorityEmergency
		payload := &models.Payload{
			Type:      models.PayloadFactoryEmergency,
			Title:     "🚨 " + snap.FactoryName + " emergency",
			AlertType: alertType,
			Data:      models.SnapshotData(*snap),
			Status:    string(snap.Status),
			Timestamp: snap.Timestamp.Format(time.RFC3339),
			FactoryID: factoryID,
			Priority:  models.PriorityEmergency,
		}
		if content, err = payload.Encode(); err != nil {
			return nil, models.NewInternalError(err)
		}
	} else {
		content = alertMessage(alertType, *snap)
	}

	post, err := s.publish(ctx, content, time.Time{})
	if err != nil {
		return nil, err
	}

	observability.FactoryAlerts.WithLabelValues(alertType).Inc()
	s.events.FactoryAlert(ctx, models.FactoryAlert{
		FactoryID:   factoryID,
		FactoryName: snap.FactoryName,
		AlertType:   alertType,
		Priority:    priority,
		PostID:      post.ID,
		Snapshot:    *snap,
		Timestamp:   post.CreatedAt,
	})
	middleware.Logger.WarnContext(middleware.WithFactory(ctx, factoryID), "factory alert posted",
		slog.String("alert_type", alertType), slog.Uint64("post_id", uint64(post.ID)))
	return post, nil
}

func alertMessage(alertType string, snap models.StatusSnapshot) string {
	switch alertType {
	case string(models.FactoryStatusOverheat):
		return fmt.Sprintf("🚨 **EMERGENCY ALERT** 🚨\n\n🔥 Overheating detected at %s!\nTemperature: %.1f°C (critical)\n\nThe cooling system needs immediate inspection.", snap.FactoryName, snap.Temperature)
	case string(models.FactoryStatusLowPressure):
		return fmt.Sprintf("⚠️ **WARNING** ⚠️\n\n💨 Low pressure detected at %s!\nPressure: %.1fbar (below threshold)\n\nPlease check the pressure supply system.", snap.FactoryName, snap.Pressure)
	case string(models.FactoryStatusRPMIssue):
		return fmt.Sprintf("⚙️ **EQUIPMENT ALERT** ⚙️\n\n🔧 Abnormal speed detected at %s!\nRPM: %.1f (abnormal)\n\nThe drive system needs inspection.", snap.FactoryName, snap.RPM)
	case AlertMaintenance:
		return fmt.Sprintf("🔧 **MAINTENANCE NOTICE** 🔧\n\n📋 Scheduled inspection time for %s.\nCurrent status: %s\n\nPlease carry out preventive maintenance.", snap.FactoryName, snap.Status)
	default:
		return fmt.Sprintf("📢 An alert was raised at %s.", snap.FactoryName)
	}
}

// CreateSummaryPost posts a fleet report. It fails with a validation error
// when no factories exist.
func (s *FeedService) CreateSummaryPost(ctx context.Context) (*models.Post, error) {
	summary, err := s.factories.GetFactorySummary(ctx)
	if err != nil {
		return nil, err
	}
	if summary.TotalFactories == 0 {
		return nil, models.NewValidationError("No factories registered")
	}
	return s.publish(ctx, summaryMessage(summary), time.Time{})
}

func summaryMessage(summary *models.FactorySummary) string {
	rate := float64(summary.NormalCount) / float64(summary.TotalFactories) * 100
	text := fmt.Sprintf(`🏭 **Factory Fleet Status Report**

📊 **Operations**
• Total factories: %d
• ✅ Normal: %d
• ⚠️ Warning: %d
• 🔥 Critical: %d

📈 **Normal operation rate**: %.1f%%`,
		summary.TotalFactories, summary.NormalCount, summary.WarningCount, summary.ErrorCount, rate)

	switch {
	case summary.ErrorCount > 0:
		text += "\n\n🚨 **Some factories need immediate inspection!**"
	case summary.WarningCount > 0:
		text += "\n\n💡 **Some factories need attention.**"
	default:
		text += "\n\n✅ **All factories are operating normally.**"
	}
	return text
}

// SystemPosts returns the feed filtered to the system identity, newest first.
func (s *FeedService) SystemPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	system, err := s.SystemUser(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.GetByUserID(ctx, system.ID, in.Limit, in.Offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	return decorateAll(posts), nil
}
