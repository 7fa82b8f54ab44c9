package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/sahilchouksey/devcamper-api/model"
	"github.com/sahilchouksey/devcamper-api/utils/auth"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed file names under the data directory
const (
	UsersFile     = "users.json"
	BootcampsFile = "bootcamps.json"
	CoursesFile   = "courses.json"
)

// Reconciler recomputes every bootcamp's derived average cost
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

type seedUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type seedBootcamp struct {
	// Key links courses to their bootcamp within the seed files
	Key           string          `json:"key"`
	User          string          `json:"user"` // owner email
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Website       string          `json:"website"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	Address       string          `json:"address"`
	Location      *model.GeoPoint `json:"location"`
	Careers       []string        `json:"careers"`
	Housing       bool            `json:"housing"`
	JobAssistance bool            `json:"jobAssistance"`
	JobGuarantee  bool            `json:"jobGuarantee"`
	AcceptGi      bool            `json:"acceptGi"`
}

type seedCourse struct {
	Bootcamp             string  `json:"bootcamp"` // bootcamp key
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Weeks                int     `json:"weeks"`
	Tuition              float64 `json:"tuition"`
	MinimumSkill         string  `json:"minimumSkill"`
	ScholarshipAvailable bool    `json:"scholarshipAvailable"`
}

// Seeder handles database seeding operations
type Seeder struct {
	db         *gorm.DB
	reconciler Reconciler
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, reconciler Reconciler) *Seeder {
	return &Seeder{db: db, reconciler: reconciler}
}

func readSeedFile(dir, name string, dst interface{}, optional bool) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// ImportData loads users, bootcamps and courses from the JSON files in dir
// and recomputes average costs. users.json is optional; bootcamp owners
// must then already exist.
func (s *Seeder) ImportData(ctx context.Context, dir string) error {
	var (
		users     []seedUser
		bootcamps []seedBootcamp
		courses   []seedCourse
	)
	if err := readSeedFile(dir, UsersFile, &users, true); err != nil {
		return err
	}
	if err := readSeedFile(dir, BootcampsFile, &bootcamps, false); err != nil {
		return err
	}
	if err := readSeedFile(dir, CoursesFile, &courses, false); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners := make(map[string]uint)
		for _, u := range users {
			hash, err := auth.HashPassword(u.Password)
			if err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
			role := u.Role
			if role == "" {
				role = model.RoleUser
			}
			user := model.User{Name: u.Name, Email: strings.ToLower(u.Email), PasswordHash: hash, Role: role}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
			owners[user.Email] = user.ID
		}

		ids := make(map[string]uint, len(bootcamps))
		for _, b := range bootcamps {
			email := strings.ToLower(b.User)
			ownerID, ok := owners[email]
			if !ok {
				var owner model.User
				if err := tx.Where("email = ?", email).First(&owner).Error; err != nil {
					return fmt.Errorf("bootcamp %q: owner %s: %w", b.Name, b.User, err)
				}
				ownerID = owner.ID
				owners[email] = ownerID
			}

			bootcamp := model.Bootcamp{
				UserID:        ownerID,
				Name:          b.Name,
				Slug:          slug.Make(b.Name),
				Description:   b.Description,
				Website:       b.Website,
				Phone:         b.Phone,
				Email:         b.Email,
				Address:       b.Address,
				Careers:       datatypes.JSONSlice[string](b.Careers),
				Housing:       b.Housing,
				JobAssistance: b.JobAssistance,
				JobGuarantee:  b.JobGuarantee,
				AcceptGi:      b.AcceptGi,
			}
			if b.Location != nil {
				bootcamp.Location = *b.Location
			}
			if err := tx.Create(&bootcamp).Error; err != nil {
				return fmt.Errorf("bootcamp %q: %w", b.Name, err)
			}
			ids[b.Key] = bootcamp.ID
		}

		for _, c := range courses {
			bootcampID, ok := ids[c.Bootcamp]
			if !ok {
				return fmt.Errorf("course %q: unknown bootcamp key %q", c.Title, c.Bootcamp)
			}
			course := model.Course{
				BootcampID:           bootcampID,
				Title:                c.Title,
				Description:          c.Description,
				Weeks:                c.Weeks,
				Tuition:              c.Tuition,
				MinimumSkill:         c.MinimumSkill,
				ScholarshipAvailable: c.ScholarshipAvailable,
			}
			if err := tx.Create(&course).Error; err != nil {
				return fmt.Errorf("course %q: %w", c.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.reconciler != nil {
		if _, err := s.reconciler.ReconcileAll(ctx); err != nil {
			return fmt.Errorf("recompute average costs: %w", err)
		}
	}

	logger.Infof("Data imported: %d users, %d bootcamps, %d courses", len(users), len(bootcamps), len(courses))
	return nil
}

// DestroyData removes every course and bootcamp
func (s *Seeder) DestroyData(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&model.Course{}).Error; err != nil {
			return err
		}
		if err := global.Delete(&model.Bootcamp{}).Error; err != nil {
			return err
		}
		logger.Info("Data destroyed")
		return nil
	})
}

// SeedAdminUser creates the admin account unless one already exists.
// It is skipped when email or password is empty.
func (s *Seeder) SeedAdminUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		logger.Warning("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Admin user already exists, skipping")
		return nil
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	logger.Infof("Created admin user: %s", admin.Email)
	return nil
}
