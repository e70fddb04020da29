package e2e

import (
	"net/http"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/suite"
)

// BrowserSuite drives the running server through headless Chromium.
type BrowserSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

func (s *BrowserSuite) SetupSuite() {
	pw, err := playwright.Run()
	s.Require().NoError(err, "could not launch playwright")
	s.pw = pw

	s.browser, err = pw.Chromium.Launch()
	s.Require().NoError(err, "could not launch chromium")

	s.expect = playwright.NewPlaywrightAssertions()
}

func (s *BrowserSuite) TearDownSuite() {
	if s.browser != nil {
		s.browser.Close()
	}
	if s.pw != nil {
		s.pw.Stop()
	}
}

// Every test starts from a fresh page, and so without a session.
func (s *BrowserSuite) SetupTest() {
	var err error
	s.page, err = s.browser.NewPage()
	s.Require().NoError(err, "could not create page")
	s.open("/")
}

func (s *BrowserSuite) TearDownTest() {
	if s.page != nil {
		s.page.Close()
	}
}

func (s *BrowserSuite) open(path string) {
	_, err := s.page.Goto(appURL + path)
	s.Require().NoError(err, "could not open %s", path)
}

func (s *BrowserSuite) fill(selector, value string) {
	s.Require().NoError(s.page.Locator(selector).Fill(value), "could not fill %s", selector)
}

func (s *BrowserSuite) click(selector string) {
	s.Require().NoError(s.page.Locator(selector).Click(), "could not click %s", selector)
}

func (s *BrowserSuite) visible(selector, msg string) {
	s.Require().NoError(s.expect.Locator(s.page.Locator(selector)).ToBeVisible(), msg)
}

func (s *BrowserSuite) login() {
	s.visible(".login-form", "anonymous visitors see the login form")
	s.fill("input[name=username]", e2eUser)
	s.fill("input[name=password]", e2ePassword)
	s.click(".login-btn")
	s.visible(".dashboard", "login lands on the dashboard")
}

func (s *BrowserSuite) TestWrongPasswordStaysOnLogin() {
	s.fill("input[name=username]", e2eUser)
	s.fill("input[name=password]", "not-the-password")
	s.click(".login-btn")
	s.visible(".login-form", "failed login shows the form again")
}

func (s *BrowserSuite) TestExpenseLifecycle() {
	s.login()

	s.open("/categories")
	s.fill("#category-form input[name=name]", "Food")
	s.click("#category-form button.submit")
	s.Require().NoError(s.expect.Locator(s.page.Locator(".category-item")).ToHaveCount(1), "category not listed")

	s.open("/")
	s.fill("#expense-form input[name=name]", "Lunch Test")
	s.fill("#expense-form input[name=amount]", "12.50")
	_, err := s.page.Locator("#expense-form select[name=categoryId]").SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{"Food"},
	})
	s.Require().NoError(err, "could not pick the category")
	s.click("#expense-form button.submit")

	items := s.page.Locator(".expense-item")
	s.Require().NoError(s.expect.Locator(items).ToHaveCount(1), "one expense listed")
	first := items.First()
	s.Require().NoError(s.expect.Locator(first.Locator(".expense-name")).ToHaveText("Lunch Test"))
	s.Require().NoError(s.expect.Locator(first.Locator(".expense-amount")).ToContainText("12.50"))
	s.Require().NoError(s.expect.Locator(s.page.Locator(".summary-total")).ToHaveText("12.50"))

	// The category is still referenced, so deleting it is refused.
	s.open("/categories")
	resp, err := s.page.ExpectResponse("**/delete", func() error {
		return s.page.Locator(".category-item .delete-btn").Click()
	})
	s.Require().NoError(err, "delete request not observed")
	s.Equal(http.StatusConflict, resp.Status())
}

func TestBrowserSuite(t *testing.T) {
	suite.Run(t, new(BrowserSuite))
}
