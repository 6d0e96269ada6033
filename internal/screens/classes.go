package screens

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
)

// ClassesAPI is what the classes screen needs from the API.
type ClassesAPI interface {
	Classes(ctx context.Context) ([]models.Class, error)
	CreateClass(ctx context.Context, f forms.Class) (*models.Class, string, error)
	UpdateClass(ctx context.Context, classUUID string, f forms.Class) (*models.Class, string, error)
}

// Classes is the class list screen.
type Classes struct {
	api    ClassesAPI
	notify Notifier
	logger *slog.Logger
	g      guard

	mu      sync.Mutex
	classes []models.Class
}

func NewClasses(a ClassesAPI, n Notifier) *Classes {
	return &Classes{api: a, notify: n, logger: slog.Default().With("screen", "classes")}
}

// Load fetches the classes.
func (c *Classes) Load(ctx context.Context) error {
	tok := c.g.issue()
	classes, err := c.api.Classes(ctx)
	if !c.g.current(tok) {
		return ErrStale
	}
	if err != nil {
		c.logger.Error("Failed to load classes", "error", err)
		return fail(c.notify, err)
	}
	c.mu.Lock()
	c.classes = classes
	c.mu.Unlock()
	return nil
}

// List returns the loaded classes.
func (c *Classes) List() []models.Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Class(nil), c.classes...)
}

// Add creates a class and appends it to the list.
func (c *Classes) Add(ctx context.Context, f forms.Class) error {
	if err := validate(c.notify, f); err != nil {
		return err
	}
	release, err := c.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	class, msg, err := c.api.CreateClass(ctx, f)
	if err != nil {
		return fail(c.notify, err)
	}
	if class.UUID != "" {
		c.mu.Lock()
		c.classes = append(c.classes, *class)
		c.mu.Unlock()
	}
	c.notify.Success(msg)
	return nil
}

// Edit saves a class by uuid and replaces it in the list.
func (c *Classes) Edit(ctx context.Context, classUUID string, f forms.Class) error {
	if err := validate(c.notify, f); err != nil {
		return err
	}
	release, err := c.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	class, msg, err := c.api.UpdateClass(ctx, classUUID, f)
	if err != nil {
		return fail(c.notify, err)
	}

	c.mu.Lock()
	for i := range c.classes {
		if c.classes[i].UUID != classUUID {
			continue
		}
		if class.UUID != "" {
			c.classes[i] = *class
		} else {
			c.classes[i].ClassName = f.ClassName
			c.classes[i].Section = f.Section
			c.classes[i].MonthlyFees = models.Amount(f.MonthlyFees)
		}
	}
	c.mu.Unlock()
	c.notify.Success(msg)
	return nil
}
