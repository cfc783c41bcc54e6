// Package scenarios holds the end-to-end tests of the admin panel. They
// need a running panel and a Chromium binary, and only run when
// PANELTEST_CATEGORY selects them; see `paneltest help`.
package scenarios
