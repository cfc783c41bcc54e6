package pages

import (
	"fmt"
	"strings"

	"github.com/v0xg/paneltest/internal/config"
	"github.com/v0xg/paneltest/internal/console"
	"github.com/v0xg/paneltest/internal/locator"
	"github.com/v0xg/paneltest/internal/webpage"
)

var (
	BackupsTitle   = locator.ByXPath("//h1[contains(text(), 'Backup')]")
	BackupsView    = locator.ByXPath("//button[contains(., 'View')]")
	BackupsRefresh = locator.ByXPath("//button[contains(@aria-label, 'Refresh') or contains(., 'Refresh')]")

	viewInRow = ".//button[contains(., 'View')]"
)

// BackupHeaders are the column names the backups table must show.
var BackupHeaders = []string{"filename", "date", "size"}

// backupCell locates column col (zero based) of table row row.
func backupCell(row, col int) locator.Locator {
	return rowsX.Nth(row).Within(fmt.Sprintf("./td[%d]", col+1))
}

// Backups is the /backups screen listing the app's data snapshots.
type Backups struct {
	page
}

func NewBackups(act webpage.Actions, cfg *config.Config, log *console.Logger) *Backups {
	return &Backups{page: newPage(act, cfg, log)}
}

func (p *Backups) Navigate() error {
	return p.open("/backups", "Backups")
}

func (p *Backups) IsLoaded() bool {
	return p.act.IsVisible(BackupsTitle, p.cfg.ImplicitWait())
}

func (p *Backups) IsTableVisible() bool {
	return p.act.IsVisible(Table, 0)
}

func (p *Backups) Count() int {
	n := p.rowCount()
	p.log.Info("Found %d backups", n)
	return n
}

// ViewFirst opens the details dialog of the newest backup. It reports false
// when there are no backups.
func (p *Backups) ViewFirst() (bool, error) {
	ok, err := p.clickInFirstRow(viewInRow, "view")
	if !ok || err != nil {
		return ok, err
	}
	if err := p.act.WaitVisible(Dialog, dialogTimeout); err != nil {
		return false, err
	}
	p.log.Info("Clicked View on first backup")
	return true, nil
}

func (p *Backups) IsDialogOpen() bool {
	return p.isDialogOpen()
}

func (p *Backups) CloseDialog() error {
	return p.closeDialog()
}

// Refresh uses the page's refresh button, or reloads when there is none.
func (p *Backups) Refresh() error {
	if p.act.IsPresent(BackupsRefresh, 0) {
		if err := p.act.Click(BackupsRefresh); err != nil {
			return err
		}
		p.log.Info("Clicked Refresh button")
		return nil
	}
	return p.act.Refresh()
}

// VerifyHeaders reports, per expected column, whether some header contains it.
func (p *Backups) VerifyHeaders() map[string]bool {
	p.log.Info("Verifying backup table headers...")
	headers := p.act.Texts(TableHeader, 0)
	results := make(map[string]bool, len(BackupHeaders))
	for _, want := range BackupHeaders {
		found := false
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), want) {
				found = true
				break
			}
		}
		results[want] = found
		if found {
			p.log.Success("✓ '%s' header found", want)
		} else {
			p.log.Warn("'%s' header not found", want)
		}
	}
	return results
}

// FirstFilename is the filename cell of the newest backup.
func (p *Backups) FirstFilename() (string, error) {
	return p.act.Text(backupCell(0, 0))
}

// VerifyLatestFirst compares the date cells of the first two rows. It
// fails on an invalid or unreadable date and when the first row is older
// than the second. Fewer than two rows passes.
func (p *Backups) VerifyLatestFirst() (bool, error) {
	p.log.Info("Verifying backups are sorted (latest first)...")
	if p.rowCount() < 2 {
		p.log.Warn("Not enough backups to verify sorting")
		return true, nil
	}

	first, err := p.act.Text(backupCell(0, 1))
	if err != nil {
		return false, err
	}
	second, err := p.act.Text(backupCell(1, 1))
	if err != nil {
		return false, err
	}
	p.log.Info("First backup date: %s", first)
	p.log.Info("Second backup date: %s", second)

	if err := LatestFirst(first, second); err != nil {
		p.log.Error("✗ %v", err)
		return false, nil
	}
	p.log.Success("✓ Dates are valid and latest first")
	return true, nil
}
