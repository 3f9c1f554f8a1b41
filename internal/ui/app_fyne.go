//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"granblueautomation/internal/config"
	"granblueautomation/internal/crash"
	applog "granblueautomation/internal/log"
	"granblueautomation/internal/splashart"
	"granblueautomation/internal/startup"
	"granblueautomation/internal/telemetry"
	"granblueautomation/internal/version"
)

const appTitle = "Granblue Automation"

// Run opens the splash window, prepares the hidden main window and hands
// control to the Fyne event loop. Once the app has started the
// close_splashscreen command runs on a background goroutine.
func Run(opts RunOptions) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover()

	cfg := opts.Config.Splash
	fyneApp := app.NewWithID("io.github.granblueautomation")
	prefs := fyneApp.Preferences()
	applyColorScheme(fyneApp, loadColorScheme(prefs))

	splash := newSplashWindow(fyneApp)
	splash.SetContent(splashContent(cfg))
	splash.Resize(fyne.NewSize(float32(cfg.Width), float32(cfg.Height)))
	splash.CenterOnScreen()

	mainWin := fyneApp.NewWindow(appTitle)
	mainWin.SetMaster()
	view := newMainView(fyneApp, opts)
	mainWin.SetContent(view.content)
	mainWin.Resize(fyne.NewSize(1024, 720))
	mainWin.CenterOnScreen()

	reg := NewWindowRegistry()
	reg.Add(cfg.SplashWindow, splash)
	reg.Add(cfg.MainWindow, mainWin)

	var rec launchRecorder
	if opts.Journal != nil {
		rec = opts.Journal
	}
	seq, err := startup.New(reg, sequencerOptions(cfg, outcomeHook(rec, telemetry.Default())))
	if err != nil {
		return fmt.Errorf("startup sequencer: %w", err)
	}
	cmds := startup.NewCommands()
	cmds.Register(startup.CommandCloseSplashscreen, startup.CloseSplashscreen(seq, crash.Abort))

	var once sync.Once
	fyneApp.Lifecycle().SetOnStarted(func() {
		once.Do(func() {
			go func() {
				defer crash.Recover()
				if err := cmds.Invoke(startup.CommandCloseSplashscreen); err != nil {
					l.Error("close_splashscreen failed", slog.Any("err", err))
					return
				}
				if opts.Updates == nil {
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				announceUpdate(ctx, opts.Updates, version.Version, telemetry.Default(), func(notice, link string) {
					fyne.Do(func() { view.showUpdate(notice, link) })
				})
			}()
		})
	})

	splash.Show()
	fyneApp.Run()
	l.Info("UI stopped")
	return nil
}

// newSplashWindow uses the borderless splash window where the driver offers one.
func newSplashWindow(a fyne.App) fyne.Window {
	if drv, ok := a.Driver().(desktop.Driver); ok {
		return drv.CreateSplashWindow()
	}
	return a.NewWindow(appTitle)
}

func splashContent(cfg config.SplashConfig) fyne.CanvasObject {
	size := image.Pt(cfg.Width, cfg.Height-48)
	var art image.Image
	if cfg.Image != "" {
		img, err := splashart.Load(cfg.Image, size)
		if err != nil {
			applog.WithComponent("ui").Warn("splash image unavailable, using default", slog.Any("err", err))
		} else {
			art = img
		}
	}
	if art == nil {
		art = splashart.Default(size, appTitle)
	}
	pic := canvas.NewImageFromImage(art)
	pic.FillMode = canvas.ImageFillContain
	pic.SetMinSize(fyne.NewSize(float32(size.X), float32(size.Y)))

	bar := widget.NewProgressBarInfinite()
	status := widget.NewLabelWithStyle("Loading…", fyne.TextAlignCenter, fyne.TextStyle{})
	return container.NewBorder(nil, container.NewVBox(status, bar), nil, nil, pic)
}

// variantTheme pins the default theme to one variant.
type variantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t variantTheme) Color(n fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(n, t.variant)
}

func applyColorScheme(a fyne.App, s ColorScheme) {
	v := theme.VariantLight
	if s == SchemeDark {
		v = theme.VariantDark
	}
	a.Settings().SetTheme(variantTheme{Theme: theme.DefaultTheme(), variant: v})
}

type mainView struct {
	content fyne.CanvasObject
	update  *widget.Label
	link    *widget.Hyperlink
	box     *fyne.Container
}

func newMainView(a fyne.App, opts RunOptions) *mainView {
	title := widget.NewLabelWithStyle(appTitle, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	ver := widget.NewLabelWithStyle("Version "+version.String(), fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	last := widget.NewLabel("No previous launches recorded.")
	if ll := opts.LastLaunch; ll != nil {
		state := "ok"
		if !ll.Succeeded() {
			state = "failed: " + ll.Error
		}
		last.SetText(fmt.Sprintf("Last launch %s (splash %s, %s)",
			ll.StartedAt.Format("2006-01-02 15:04"), ll.Delay, state))
	}
	last.Alignment = fyne.TextAlignCenter

	prefs := a.Preferences()
	dark := widget.NewCheck("Dark mode", func(on bool) {
		s := SchemeLight
		if on {
			s = SchemeDark
		}
		saveColorScheme(prefs, s)
		applyColorScheme(a, s)
	})
	dark.SetChecked(loadColorScheme(prefs) == SchemeDark)

	v := &mainView{
		update: widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		link:   widget.NewHyperlink("Go to GitHub", nil),
	}
	v.link.Alignment = fyne.TextAlignCenter
	banner := container.NewVBox(v.update, v.link)
	banner.Hide()
	v.box = banner

	items := []fyne.CanvasObject{title, ver}
	if version.IsDevelopment() {
		warn := canvas.NewText("WARNING: This app is running in a development environment.", theme.Color(theme.ColorNameError))
		warn.Alignment = fyne.TextAlignCenter
		items = append(items, warn)
	}
	items = append(items, banner, widget.NewSeparator(), last, container.NewCenter(dark))
	v.content = container.NewCenter(container.NewVBox(items...))
	return v
}

// showUpdate must run on the Fyne main goroutine.
func (v *mainView) showUpdate(notice, link string) {
	v.update.SetText(notice)
	if u, err := url.Parse(link); err == nil {
		v.link.SetURL(u)
	}
	v.box.Show()
}
