package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	ps "github.com/mitchellh/go-ps"
)

var (
	ErrTimedOut          = errors.New("timed out waiting for the identity provider")
	ErrLoginFormNotFound = errors.New("login form not found on the identity provider page")
	ErrBrowserFailure    = errors.New("unable to drive the browser")
)

const (
	loginFormSelector     = "#loginForm"
	usernameSelector      = "input[name=UserName]"
	passwordSelector      = "input[name=Password]"
	submitSelector        = "#submitButton"
	samlResponseField     = "SAMLResponse"
	samlResponseSelector  = "input[name=SAMLResponse]"
	defaultTimeoutSeconds = 120
	signedInPage          = `<!DOCTYPE html><html><body>Signed in, you can close this window.</body></html>`
)

type WebConfig struct {
	datadir          string
	headless         bool
	timeout          int
	ignoreCertErrors bool
}

func NewWebConf(datadir string) *WebConfig {
	return &WebConfig{
		datadir: datadir,
		timeout: defaultTimeoutSeconds,
	}
}

func (wc *WebConfig) WithHeadless() *WebConfig {
	wc.headless = true
	return wc
}

// WithTimeout sets the number of seconds the whole login may take
func (wc *WebConfig) WithTimeout(seconds int) *WebConfig {
	wc.timeout = seconds
	return wc
}

// WithIgnoreCertErrors lets the browser accept self signed IdP certificates
func (wc *WebConfig) WithIgnoreCertErrors() *WebConfig {
	wc.ignoreCertErrors = true
	return wc
}

type Web struct {
	conf   *WebConfig
	logger logr.Logger
}

// New returns an initialised instance of Web struct
func New(conf *WebConfig) *Web {
	return &Web{conf: conf, logger: logr.Discard()}
}

func (web *Web) WithLogger(logger logr.Logger) *Web {
	web.logger = logger
	return web
}

// FetchAssertion signs into the ADFS forms login at loginURL and returns
// the urlencoded body of the SAMLResponse post the identity provider
// sends back to AWS.
func (web *Web) FetchAssertion(ctx context.Context, loginURL, username, password string) (string, error) {
	l := launcher.New().
		Headless(web.conf.headless).
		Devtools(false).
		Leakless(true).
		UserDataDir(web.conf.datadir)

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launch: %s, %w", err, ErrBrowserFailure)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect: %s, %w", err, ErrBrowserFailure)
	}
	defer browser.Close()

	if web.conf.ignoreCertErrors {
		if err := browser.IgnoreCertErrors(true); err != nil {
			return "", fmt.Errorf("ignore cert errors: %s, %w", err, ErrBrowserFailure)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(web.conf.timeout)*time.Second)
	defer cancel()

	body, err := web.login(browser.Context(ctx), loginURL, username, password)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s, %w", ctx.Err(), ErrTimedOut)
		}
		return "", err
	}
	return body, nil
}

func (web *Web) login(browser *rod.Browser, loginURL, username, password string) (string, error) {
	captured := make(chan string, 1)
	router := browser.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		captureResponsePost(h, captured)
	})
	go router.Run()
	defer router.Stop()

	page, err := browser.Page(proto.TargetCreateTarget{URL: loginURL})
	if err != nil {
		return "", fmt.Errorf("open %s: %s, %w", loginURL, err, ErrBrowserFailure)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("load %s: %s, %w", loginURL, err, ErrBrowserFailure)
	}
	web.logger.V(2).Info("login page loaded", "url", loginURL)

	found, form, err := page.Has(loginFormSelector)
	if err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrBrowserFailure)
	}
	if !found {
		return "", ErrLoginFormNotFound
	}

	user, err := form.Element(usernameSelector)
	if err != nil {
		return "", fmt.Errorf("username field: %s, %w", err, ErrLoginFormNotFound)
	}
	if err := user.Input(username); err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrBrowserFailure)
	}
	pass, err := form.Element(passwordSelector)
	if err != nil {
		return "", fmt.Errorf("password field: %s, %w", err, ErrLoginFormNotFound)
	}
	if err := pass.Input(password); err != nil {
		return "", fmt.Errorf("%s, %w", err, ErrBrowserFailure)
	}

	if err := submit(page, form); err != nil {
		return "", fmt.Errorf("submit: %s, %w", err, ErrBrowserFailure)
	}
	web.logger.V(1).Info("credentials submitted, waiting for the SAML response")

	go web.postResponseForm(page)

	select {
	case body := <-captured:
		return body, nil
	case <-browser.GetContext().Done():
		return "", browser.GetContext().Err()
	}
}

// captureResponsePost answers the POST carrying the SAMLResponse itself,
// so the browser never signs in to the AWS console, and hands the form
// body over. Every other request goes through untouched.
func captureResponsePost(h *rod.Hijack, captured chan<- string) {
	if h.Request.Method() == http.MethodPost {
		body := h.Request.Body()
		if form, err := url.ParseQuery(body); err == nil && form.Get(samlResponseField) != "" {
			select {
			case captured <- body:
			default:
			}
			h.Response.SetHeader("Content-Type", "text/html; charset=utf-8")
			h.Response.SetBody(signedInPage)
			return
		}
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

// postResponseForm submits the SAMLResponse form on pages that do not
// post it on load.
func (web *Web) postResponseForm(page *rod.Page) {
	el, err := page.Element(samlResponseSelector)
	if err != nil {
		return
	}
	if _, err := el.Eval(`() => this.form && this.form.submit()`); err != nil {
		web.logger.V(2).Info("response form not submitted", "reason", err.Error())
	}
}

func submit(page *rod.Page, form *rod.Element) error {
	found, button, err := page.Has(submitSelector)
	if err != nil {
		return err
	}
	if found {
		return button.Click(proto.InputMouseButtonLeft, 1)
	}
	_, err = form.Eval(`() => this.submit()`)
	return err
}

// ClearCache removes the browser profile and any browser processes left
// over from an earlier run
func (web *Web) ClearCache() error {
	errs := []error{}

	if err := os.RemoveAll(web.conf.datadir); err != nil {
		errs = append(errs, err)
	}
	if err := web.checkRodProcess(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// checkRodProcess gets a list running process
// kills any hanging rod browser process from any previous improprely closed sessions
func (web *Web) checkRodProcess() error {
	pids := make([]int, 0)
	ps, err := ps.Processes()
	if err != nil {
		return err
	}
	for _, v := range ps {
		if strings.Contains(v.Executable(), "Chromium") {
			pids = append(pids, v.Pid())
		}
	}
	for _, pid := range pids {
		web.logger.Info("process to be killed as part of clean up", "pid", pid)
		if proc, _ := os.FindProcess(pid); proc != nil {
			_ = proc.Kill()
		}
	}
	return nil
}
