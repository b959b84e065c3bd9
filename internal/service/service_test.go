package service

import (
	"sync"
	"testing"

	"StudyRoom/internal/pkg"
	"StudyRoom/internal/testutils"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type sentMail struct {
	To       string
	Subject  string
	Template string
	Data     pkg.MailData
}

// mailbox 记录发出的邮件
type mailbox struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mailbox) Notify(to, subject, template string, data pkg.MailData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Template: template, Data: data})
}

func (m *mailbox) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func setup(t *testing.T) (*gorm.DB, *redis.Client) {
	t.Helper()
	db := testutils.SetupTestDB(t)
	_, rdb := testutils.SetupTestRedis(t)
	return db, rdb
}
