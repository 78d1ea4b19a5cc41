// Package catalog is the menu catalog: the dated food and drink items
// attendance is recorded against.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/failure"
	"github.com/gdg-garage/mess-billing/internal/models"
)

// Kind filters menu items by type.
type Kind int

const (
	AnyKind Kind = iota
	FoodOnly
	DrinksOnly
)

func (k Kind) scope(q *gorm.DB) *gorm.DB {
	switch k {
	case FoodOnly:
		return q.Where("is_food = ?", true)
	case DrinksOnly:
		return q.Where("is_food = ?", false)
	default:
		return q
	}
}

type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ForDay lists the items served on day, drinks first.
func (c *Catalog) ForDay(ctx context.Context, day calendar.Day, kind Kind) ([]models.MenuItem, error) {
	return ForDay(c.db.WithContext(ctx), day, kind)
}

// InWindow lists the items served within w, oldest first.
func (c *Catalog) InWindow(ctx context.Context, w calendar.Window, kind Kind) ([]models.MenuItem, error) {
	return InWindow(c.db.WithContext(ctx), w, kind)
}

// ForDay runs the day query on tx, so callers can stay inside their own
// unit of work.
func ForDay(tx *gorm.DB, day calendar.Day, kind Kind) ([]models.MenuItem, error) {
	var items []models.MenuItem
	q := tx.Where("date >= ? AND date < ?", day.Time(), day.AddDays(1).Time())
	if err := kind.scope(q).Order("is_food, name").Find(&items).Error; err != nil {
		return nil, failure.Storage(err, "failed to list menu for %s", day)
	}
	return items, nil
}

// InWindow runs the window query on tx.
func InWindow(tx *gorm.DB, w calendar.Window, kind Kind) ([]models.MenuItem, error) {
	var items []models.MenuItem
	q := tx.Where("date >= ? AND date < ?", w.From.Time(), w.End().Time())
	if err := kind.scope(q).Order("date, is_food, name").Find(&items).Error; err != nil {
		return nil, failure.Storage(err, "failed to list menu for %s", w)
	}
	return items, nil
}

// List returns every item, newest day first.
func (c *Catalog) List(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.db.WithContext(ctx).Order("date DESC, is_food, name").Find(&items).Error; err != nil {
		return nil, failure.Storage(err, "failed to list menu")
	}
	return items, nil
}

func (c *Catalog) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.db.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, failure.NotFound("menu item %d not found", id)
	}
	if err != nil {
		return nil, failure.Storage(err, "failed to load menu item %d", id)
	}
	return &item, nil
}

// Draft is the editable part of a menu item.
type Draft struct {
	Name   string
	Date   calendar.Day
	Price  decimal.Decimal
	IsFood bool
}

func (d Draft) validate(today calendar.Day) error {
	if strings.TrimSpace(d.Name) == "" {
		return failure.Validation("menu name is required")
	}
	if !d.Price.IsPositive() {
		return failure.Validation("price must be greater than 0")
	}
	if d.Date.IsZero() {
		return failure.Validation("date is required")
	}
	if d.Date.Before(today) {
		return failure.Validation("date cannot be in the past")
	}
	return nil
}

// Add creates an item. today is the resolved request day, used to reject
// items dated in the past.
func (c *Catalog) Add(ctx context.Context, d Draft, today calendar.Day) (*models.MenuItem, error) {
	if err := d.validate(today); err != nil {
		return nil, err
	}
	item := models.MenuItem{
		Name:   strings.TrimSpace(d.Name),
		Date:   d.Date.Time(),
		Price:  d.Price,
		IsFood: d.IsFood,
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkDuplicate(tx, item.Name, d.Date, 0); err != nil {
			return err
		}
		if err := tx.Create(&item).Error; err != nil {
			return failure.Storage(err, "failed to add menu item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the editable fields of item id.
func (c *Catalog) Update(ctx context.Context, id uint, d Draft, today calendar.Day) (*models.MenuItem, error) {
	if err := d.validate(today); err != nil {
		return nil, err
	}
	var item models.MenuItem
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return failure.NotFound("menu item %d not found", id)
			}
			return failure.Storage(err, "failed to load menu item %d", id)
		}
		name := strings.TrimSpace(d.Name)
		if err := checkDuplicate(tx, name, d.Date, id); err != nil {
			return err
		}
		item.Name = name
		item.Date = d.Date.Time()
		item.Price = d.Price
		item.IsFood = d.IsFood
		if err := tx.Save(&item).Error; err != nil {
			return failure.Storage(err, "failed to update menu item %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes item id unless attendance has been recorded against it.
func (c *Catalog) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return failure.NotFound("menu item %d not found", id)
			}
			return failure.Storage(err, "failed to load menu item %d", id)
		}
		var refs int64
		if err := tx.Model(&models.Attendance{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
			return failure.Storage(err, "failed to check attendance for menu item %d", id)
		}
		if refs > 0 {
			return failure.Conflict("cannot delete menu item: attendance records exist for this item")
		}
		if err := tx.Delete(&item).Error; err != nil {
			return failure.Storage(err, "failed to delete menu item %d", id)
		}
		return nil
	})
}

func checkDuplicate(tx *gorm.DB, name string, day calendar.Day, exceptID uint) error {
	q := tx.Model(&models.MenuItem{}).
		Where("name = ? AND date >= ? AND date < ?", name, day.Time(), day.AddDays(1).Time())
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return failure.Storage(err, "failed to check for duplicate menu item")
	}
	if n > 0 {
		return failure.Conflict("a menu item '%s' already exists for %s", name, day)
	}
	return nil
}
