package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/librarian/internal/library"
	"github.com/five82/librarian/internal/listsync"
	"github.com/five82/librarian/internal/prefs"
	"github.com/five82/librarian/internal/session"
	"github.com/five82/librarian/internal/state"
)

// View represents the current active view.
type View int

const (
	viewLists View = iota
	viewActivity
)

// Authenticator signs a user in and records the session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (library.AuthResponse, error)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Auth      Authenticator
	Client    *library.Client
	Session   *session.Holder
	Books     *listsync.List[library.Book]
	Topics    *listsync.List[library.Topic]
	Issues    *listsync.List[library.Issue]
	Users     *listsync.List[library.User]
	Stats     *state.StatsStore
	Titles    *library.TitleResolver
	Prefs     prefs.Prefs
	PrefsPath string
	LogFile   string
	Logger    *slog.Logger
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	auth      Authenticator
	client    *library.Client
	session   *session.Holder
	stats     *state.StatsStore
	titles    *library.TitleResolver
	prefs     prefs.Prefs
	prefsPath string
	logFile   string
	logger    *slog.Logger
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	spinner     spinner.Model
	showHelp    bool
	modal       Modal
	flash       string
	flashErr    bool
	flashAt     time.Time

	// Lists
	tabs      []listTab
	issues    *listsync.List[library.Issue]
	issuesTab *tab[library.Issue]
	active    int
	selected  []int

	// Search input for the active list
	searching bool
	search    textinput.Model

	// Book ids whose title lookup failed; not retried until restart
	titleMisses map[string]bool

	// Activity log
	activityViewport viewport.Model
	activity         activityState
}

var errMissingCredentials = errors.New("email and password are required")

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "Search..."
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		auth:        opts.Auth,
		client:      opts.Client,
		session:     opts.Session,
		stats:       opts.Stats,
		titles:      opts.Titles,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		logFile:     opts.LogFile,
		logger:      logger,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: viewLists,
		spinner:     sp,
		search:      search,
		issues:      opts.Issues,
		titleMisses: make(map[string]bool),
		activity:    activityState{follow: true},
	}

	if opts.Books != nil {
		m.tabs = append(m.tabs, newBooksTab(opts.Books))
	}
	if opts.Topics != nil {
		m.tabs = append(m.tabs, newTopicsTab(opts.Topics))
	}
	if opts.Issues != nil {
		m.issuesTab = newIssuesTab(opts.Issues, opts.Titles, now)
		m.tabs = append(m.tabs, m.issuesTab)
	}
	if opts.Users != nil {
		m.tabs = append(m.tabs, newUsersTab(opts.Users))
	}
	m.selected = make([]int, len(m.tabs))

	if !m.signedIn() && m.auth != nil {
		m.modal = newLoginModal(ctx, m.auth, m.sessionEmail())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
		m.spinner.Tick,
	}
	for i, t := range m.tabs {
		cmds = append(cmds, waitForChange(i, t.Changes()))
	}
	if m.signedIn() && len(m.tabs) > 0 {
		cmds = append(cmds, loadCmd(m.tabs[m.active]))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.search.Width = max(m.width-8, 10)
		m.updateActivityViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listChangedMsg:
		return m.handleListChanged(msg)

	case titlesResolvedMsg:
		for _, id := range msg.missed {
			m.titleMisses[id] = true
		}
		return m, nil

	case activityMsg:
		m.handleActivity(msg)
		return m, nil

	case flashMsg:
		m.setFlash(msg.text, msg.err)
		return m, nil

	case formSubmittedMsg:
		if msg.err == nil {
			m.setFlash("Saved", false)
		}
		return m.updateModal(msg)

	case deleteDoneMsg:
		if msg.err != nil {
			m.setFlash("Delete failed: "+errorText(msg.err), true)
		} else {
			m.setFlash("Deleted", false)
		}
		return m.updateModal(msg)

	case loginDoneMsg:
		model, cmd := m.updateModal(msg)
		m = model.(Model)
		if msg.err != nil {
			return m, cmd
		}
		m.setFlash("Signed in as "+msg.email, false)
		return m, tea.Batch(cmd, loadCmd(m.activeTab()))

	case returnDoneMsg:
		if msg.err != nil {
			m.setFlash("Return failed: "+errorText(msg.err), true)
			return m, nil
		}
		m.setFlash("Book returned", false)
		return m, loadCmd(m.issuesTab)

	case logoutDoneMsg:
		if msg.err != nil {
			m.logger.Warn("logout request failed", "error", msg.err)
		}
		m.setFlash("Signed out", false)
		if m.auth != nil {
			m.modal = newLoginModal(m.ctx, m.auth, "")
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.activity.contentVersion++
		m.updateActivityViewport()
		return m, nil
	case key.Matches(msg, m.keys.Logout):
		if m.signedIn() {
			return m, logoutCmd(m.ctx, m.client)
		}
		if m.auth != nil {
			m.modal = newLoginModal(m.ctx, m.auth, m.sessionEmail())
		}
		return m, nil
	}

	if m.currentView == viewActivity {
		return m.handleActivityKey(msg)
	}
	return m.handleListKey(msg)
}

// updateModal forwards msg to the open modal and closes it when done.
func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.modal == nil {
		return m, nil
	}
	modal, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = modal
	}
	return m, cmd
}

// handleListKey processes keyboard input for the list view.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.tabs) == 0 {
		return m, nil
	}
	t := m.activeTab()
	v := t.view()
	rowCount := len(v.rows)

	switch {
	case key.Matches(msg, m.keys.Tab):
		return m.switchTab((m.active + 1) % len(m.tabs))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchTab((m.active - 1 + len(m.tabs)) % len(m.tabs))
	case len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] < '1'+rune(len(m.tabs)):
		return m.switchTab(int(msg.Runes[0] - '1'))
	case key.Matches(msg, m.keys.Activity):
		m.currentView = viewActivity
		m.updateActivityViewport()
		return m, readActivityCmd(m.logFile)

	case key.Matches(msg, m.keys.Down):
		if m.selected[m.active] < rowCount-1 {
			m.selected[m.active]++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected[m.active] > 0 {
			m.selected[m.active]--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected[m.active] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.active] = max(rowCount-1, 0)

	case key.Matches(msg, m.keys.NextPage):
		m.quiet(t.NextPage())
	case key.Matches(msg, m.keys.PrevPage):
		m.quiet(t.PrevPage())
	case key.Matches(msg, m.keys.Reload):
		m.quiet(t.Load())

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(v.query.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Sort):
		field := nextSort(v.query.Sort, sortKeys(t.headers()))
		if field == "" {
			return m, nil
		}
		if err := t.ToggleSort(field); err != nil {
			m.quiet(err)
			return m, nil
		}
		m.prefs = m.prefs.WithSort(t.Name(), v.query.Sort.Toggle(field).String())
		m.savePrefs()

	case key.Matches(msg, m.keys.Create):
		if !m.signedIn() {
			return m, nil
		}
		if err := t.StartCreate(); err != nil {
			m.setFlash(errorText(err), true)
			return m, nil
		}
		title := "New " + strings.TrimSuffix(strings.ToLower(t.label()), "s")
		if t == m.issuesTab {
			title = "Issue a book"
		}
		m.modal = newFormModal(m.ctx, t, title)

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.selectedRow(v)
		if !ok || !t.editable() {
			return m, nil
		}
		if err := t.StartEdit(row.id); err != nil {
			m.setFlash(errorText(err), true)
			return m, nil
		}
		m.modal = newFormModal(m.ctx, t, "Edit "+strings.TrimSuffix(strings.ToLower(t.label()), "s"))

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selectedRow(v)
		if !ok || !t.deletable() {
			return m, nil
		}
		confirm, err := t.RequestDelete(row.id)
		if err != nil {
			m.setFlash(errorText(err), true)
			return m, nil
		}
		m.modal = newConfirmModal(m.ctx, confirm)

	case key.Matches(msg, m.keys.Return):
		if t != m.issuesTab {
			return m, nil
		}
		row, ok := m.selectedRow(v)
		if !ok {
			return m, nil
		}
		issue, found := m.issues.View().Snapshot.Find(row.id)
		if !found {
			return m, nil
		}
		if issue.Returned() {
			m.setFlash("Already returned", true)
			return m, nil
		}
		return m, returnCmd(m.ctx, m.client, issue)
	}

	return m, nil
}

// handleSearchKey edits the search box. Every change is sent to the list,
// which debounces it.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.activeTab()
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.quiet(t.Search(""))
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if value := m.search.Value(); value != before {
		if err := t.Search(value); err != nil {
			m.setFlash("Search "+errorText(err), true)
		} else if m.flashErr {
			m.flash = ""
		}
	}
	return m, cmd
}

func (m Model) switchTab(index int) (tea.Model, tea.Cmd) {
	m.active = index
	m.currentView = viewLists
	t := m.activeTab()
	if v := t.view(); m.signedIn() && !v.hasData && !v.loading && v.lastErr == nil {
		return m, loadCmd(t)
	}
	return m, nil
}

func (m Model) handleListChanged(msg listChangedMsg) (tea.Model, tea.Cmd) {
	if msg.closed {
		return m, nil
	}
	cmds := []tea.Cmd{waitForChange(msg.index, m.tabs[msg.index].Changes())}

	rows := len(m.tabs[msg.index].view().rows)
	if m.selected[msg.index] >= rows {
		m.selected[msg.index] = max(rows-1, 0)
	}

	if m.tabs[msg.index] == m.issuesTab {
		if cmd := m.resolveTitles(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// resolveTitles looks up book titles the issues page needs.
func (m Model) resolveTitles() tea.Cmd {
	if m.titles == nil || m.issues == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, issue := range m.issues.View().Snapshot.Items {
		id := issue.BookID
		if id == "" || seen[id] || m.titleMisses[id] {
			continue
		}
		seen[id] = true
		if _, ok := m.titles.Cached(id); !ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return resolveTitlesCmd(m.ctx, m.titles, ids, m.logger)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if m.flash != "" && time.Since(m.flashAt) > FlashDuration {
		m.flash = ""
	}
	if m.currentView == viewActivity && m.activity.follow {
		cmds = append(cmds, readActivityCmd(m.logFile))
	}
	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.currentView == viewActivity {
		b.WriteString(m.renderActivity())
	} else if len(m.tabs) > 0 {
		b.WriteString(m.renderList())
	}
	return b.String()
}

func (m Model) activeTab() listTab {
	if len(m.tabs) == 0 {
		return nil
	}
	return m.tabs[m.active]
}

func (m Model) selectedRow(v tabView) (tabRow, bool) {
	idx := m.selected[m.active]
	if idx < 0 || idx >= len(v.rows) {
		return tabRow{}, false
	}
	return v.rows[idx], true
}

func (m Model) signedIn() bool {
	return m.session != nil && m.session.Session().LoggedIn()
}

func (m Model) sessionEmail() string {
	if m.session == nil {
		return ""
	}
	return m.session.Session().Email
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashAt = time.Now()
}

// quiet reports err unless it is an expected no-op, like paging past the
// last page.
func (m *Model) quiet(err error) {
	if err == nil || listsync.IsQuiet(err) || errors.Is(err, listsync.ErrPageOutOfRange) {
		return
	}
	m.setFlash(errorText(err), true)
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

// errorText shortens API errors to the server's message.
func errorText(err error) string {
	var apiErr *library.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var commitErr *listsync.CommitError
	if errors.As(err, &commitErr) {
		return errorText(commitErr.Err)
	}
	return err.Error()
}

// Messages

type tickMsg time.Time

type listChangedMsg struct {
	index  int
	closed bool
}

type titlesResolvedMsg struct {
	missed []string
}

type flashMsg struct {
	text string
	err  bool
}

type returnDoneMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until the list at index signals a change.
func waitForChange(index int, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		_, ok := <-changes
		return listChangedMsg{index: index, closed: !ok}
	}
}

func loadCmd(t listTab) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		if err := t.Load(); err != nil && !listsync.IsQuiet(err) {
			return flashMsg{text: errorText(err), err: true}
		}
		return nil
	}
}

func resolveTitlesCmd(ctx context.Context, titles *library.TitleResolver, ids []string, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		missed := make([]bool, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, id := range ids {
			g.Go(func() error {
				if _, err := titles.Title(gctx, id); err != nil {
					logger.Debug("book title lookup failed", "book_id", id, "error", err)
					missed[i] = true
				}
				return nil
			})
		}
		_ = g.Wait()

		var out []string
		for i, miss := range missed {
			if miss {
				out = append(out, ids[i])
			}
		}
		return titlesResolvedMsg{missed: out}
	}
}

func returnCmd(ctx context.Context, client *library.Client, issue library.Issue) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return returnDoneMsg{err: errors.New("no api client")}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		_, err := client.ReturnBook(ctx, issue.UserID, issue.BookID)
		return returnDoneMsg{err: err}
	}
}

func logoutCmd(ctx context.Context, client *library.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return logoutDoneMsg{}
		}
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return logoutDoneMsg{err: client.Logout(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Books == nil && opts.Topics == nil && opts.Issues == nil && opts.Users == nil {
		return fmt.Errorf("ui: no lists to show")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
