package unfreeze

import (
	"context"
	"sync"

	"github.com/fraudguard/riskengine/pkg/common"
)

// StaticDirectory is an in-memory ContactDirectory for deployments that
// provision subject contacts at startup.
type StaticDirectory struct {
	mu     sync.RWMutex
	phones map[string]string
	emails map[string]string
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{
		phones: make(map[string]string),
		emails: make(map[string]string),
	}
}

// Register records a subject's contact details. Empty values are ignored.
func (d *StaticDirectory) Register(subjectID, phone, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if phone != "" {
		d.phones[subjectID] = phone
	}
	if email != "" {
		d.emails[subjectID] = email
	}
}

func (d *StaticDirectory) Phone(ctx context.Context, subjectID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	phone, ok := d.phones[subjectID]
	if !ok {
		return "", common.NewNotFoundError("no phone number registered for subject")
	}
	return phone, nil
}

func (d *StaticDirectory) Email(ctx context.Context, subjectID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email, ok := d.emails[subjectID]
	if !ok {
		return "", common.NewNotFoundError("no email address registered for subject")
	}
	return email, nil
}
