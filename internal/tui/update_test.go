package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lulu-health/lulu/internal/chat"
	"github.com/lulu-health/lulu/internal/tui/components/chatlog"
)

func newChatModel(t *testing.T, typed string) Model {
	t.Helper()
	m := Model{chatLog: chatlog.New(60, 10)}
	m.chatLog, _ = m.chatLog.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(typed)})
	return m
}

func TestApplySnapshotClearsInputAfterAcceptedAnswer(t *testing.T) {
	m := newChatModel(t, "slept well")

	// The submit went through; only the follow-up fetch failed.
	m.applySnapshot(chat.Snapshot{
		LastError: &chat.FlowError{Kind: chat.KindFetchQuestion, Display: "Fetch question failed: 500"},
	}, true)

	view := m.chatLog.View()
	if strings.Contains(view, "slept well") {
		t.Errorf("accepted answer still in the input box")
	}
	if !strings.Contains(view, "Fetch question failed: 500") {
		t.Errorf("follow-up failure not shown")
	}
}

func TestApplySnapshotKeepsInputOnSubmitFailure(t *testing.T) {
	m := newChatModel(t, "slept well")

	m.applySnapshot(chat.Snapshot{
		LastError: &chat.FlowError{Kind: chat.KindSubmitAnswer, Display: "Submit answer failed: 500"},
	}, true)

	view := m.chatLog.View()
	if !strings.Contains(view, "slept well") {
		t.Errorf("typed answer lost on submit failure")
	}
	if !strings.Contains(view, "Submit answer failed: 500") {
		t.Errorf("submit failure not shown")
	}
}

func TestApplySnapshotClearsInputOnSuccess(t *testing.T) {
	m := newChatModel(t, "slept well")

	m.applySnapshot(chat.Snapshot{}, true)

	if strings.Contains(m.chatLog.View(), "slept well") {
		t.Errorf("accepted answer still in the input box")
	}
}
