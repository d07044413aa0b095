package tui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipviz.dev/backend/internal/client/upload"
	"equipviz.dev/backend/internal/model"
)

type stubSubmitter struct {
	summary *model.Summary
	err     error
}

func (s stubSubmitter) Submit(context.Context, string, io.Reader) (*model.Summary, error) {
	return s.summary, s.err
}

type stubHistory struct {
	records []*model.SummaryRecord
}

func (s stubHistory) History(context.Context, int) ([]*model.SummaryRecord, error) {
	return s.records, nil
}

func csvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "equipment.csv")
	require.NoError(t, os.WriteFile(path, []byte("Type,Flowrate,Pressure,Temperature\nPump,1,2,3\n"), 0o600))
	return path
}

func typePath(m Model, path string) Model {
	for _, r := range path {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func nextEvent(t *testing.T, c *upload.Coordinator) uploadEventMsg {
	t.Helper()
	select {
	case ev := <-c.Events():
		return uploadEventMsg(ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no coordinator event")
	}
	return uploadEventMsg{}
}

func TestEnterWithoutPathAsksForFile(t *testing.T) {
	m := New(upload.New(stubSubmitter{}), nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Equal(t, upload.Idle, m.coordinator.State())
	assert.Contains(t, m.View(), "Please select a file first")
}

func TestSuccessfulUploadRendersSummary(t *testing.T) {
	d := model.NewDistribution()
	d.Add("Pump", 1)
	c := upload.New(stubSubmitter{summary: &model.Summary{TotalItems: 1, AvgFlowrate: 1, TypeDistribution: d}})
	m := typePath(New(c, nil), csvFile(t))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	next, _ = m.Update(nextEvent(t, c))
	m = next.(Model)
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), upload.MessageUploading)

	next, _ = m.Update(nextEvent(t, c))
	m = next.(Model)
	assert.False(t, m.busy)
	view := m.View()
	assert.Contains(t, view, upload.MessageSucceeded)
	assert.Contains(t, view, "Total Items: 1")
	assert.Contains(t, view, "EQUIPMENT DISTRIBUTION:")
}

func TestFailedUploadShowsReason(t *testing.T) {
	c := upload.New(stubSubmitter{err: errors.New("boom")})
	m := typePath(New(c, nil), csvFile(t))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, _ = m.Update(nextEvent(t, c))
	m = next.(Model)
	next, _ = m.Update(nextEvent(t, c))
	m = next.(Model)

	assert.True(t, m.failed)
	assert.Contains(t, m.View(), "Error: boom")
	assert.Eventually(t, func() bool { return c.State() == upload.Failed }, 5*time.Second, time.Millisecond)
}

func TestHistoryKeyLoadsTable(t *testing.T) {
	h := stubHistory{records: []*model.SummaryRecord{{ID: 3, UploadedAt: time.Now(), TotalItems: 7}}}
	m := New(upload.New(stubSubmitter{}), h)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Contains(t, m.View(), "Uploaded At")
}

func TestCtrlCQuits(t *testing.T) {
	m := New(upload.New(stubSubmitter{}), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
