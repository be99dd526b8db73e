package gioui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/x/explorer"
	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/tiles"
	"github.com/vsariola/beatmap/view"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

type (
	// Viewer is the window showing a zoomed waveform, an overview of the
	// whole track and the join between them. A Clock stands in for the audio
	// player driving the playhead.
	Viewer struct {
		Theme *Theme
		Title string

		broker      *view.Broker
		preferences Preferences
		clock       *view.Clock
		explorer    *explorer.Explorer
		exploring   bool
		verbose     bool

		zoomed   *view.Waveform
		overview *view.Waveform
		join     *view.Join

		zoomedView   *WaveformView
		overviewView *WaveformView
		joinView     JoinView

		playBtn    widget.Clickable
		zoomInBtn  widget.Clickable
		zoomOutBtn widget.Clickable
		openBtn    widget.Clickable

		status string
	}
)

// NewViewer makes a viewer showing the track of the manifest, with tiles
// fetched through loader.
func NewViewer(broker *view.Broker, m *beatmap.Manifest, loader view.LoaderFunc) (*Viewer, error) {
	v := &Viewer{broker: broker, Title: "Beatmap"}
	var warn error
	if v.Theme, warn = NewTheme(); warn != nil {
		v.warn(warn)
	}
	if v.preferences, warn = MakePreferences(); warn != nil {
		v.warn(warn)
	}
	if err := v.Load(m, loader, LoadPlaceholder(m, loader)); err != nil {
		return nil, err
	}
	return v, nil
}

// Load replaces the shown track. The zoom level named by the manifest's
// Overview is shown in full below the zoomed view; the zoomed view starts at
// the next finer level. The playhead is rewound.
func (v *Viewer) Load(m *beatmap.Manifest, loader view.LoaderFunc, placeholder image.Image) error {
	if err := m.Validate(); err != nil {
		return err
	}
	width := max(v.preferences.Window.Width, 1)
	if v.zoomed != nil {
		width = v.zoomed.Viewport().OutputWidth
	}
	zoom := min(m.Overview+1, len(m.Zooms)-1)
	zoomed, err := view.NewWaveform(v.broker, loader, m.Track, m.Zooms, width, zoom, v.preferences.ShowRuler)
	if err != nil {
		return err
	}
	overview, err := view.NewWaveform(v.broker, loader, m.Track, m.Zooms, m.Zooms[m.Overview].Width, m.Overview, false)
	if err != nil {
		zoomed.Close()
		return err
	}
	if v.zoomed != nil {
		v.zoomed.Close()
		v.overview.Close()
	}
	v.zoomed, v.overview = zoomed, overview
	v.zoomedView = NewWaveformView(zoomed, placeholder, true)
	v.overviewView = NewWaveformView(overview, placeholder, false)
	v.SetVerbose(v.verbose)
	v.clock = view.NewClock(m.Track.Length)
	v.join = nil
	v.status = ""
	return nil
}

// LoadPlaceholder fetches the placeholder image named by the manifest, if
// any. Failures are logged and give no placeholder.
func LoadPlaceholder(m *beatmap.Manifest, loader view.LoaderFunc) image.Image {
	if m.Placeholder == "" {
		return nil
	}
	img, err := loader(beatmap.TileSet{Src: m.Placeholder}).Load(context.Background(), m.Placeholder)
	if err != nil {
		log.Printf("could not load placeholder %s: %v", m.Placeholder, err)
		return nil
	}
	return img
}

// SetVerbose makes the viewer log every batch of tiles it requests.
func (v *Viewer) SetVerbose(verbose bool) {
	v.verbose = verbose
	v.zoomedView.Verbose = verbose
	v.overviewView.Verbose = verbose
}

func (v *Viewer) Main() {
	w := v.newWindow()
	v.explorer = explorer.NewExplorer(w)
	var ops op.Ops
	acks := make(chan struct{})
	events := make(chan event.Event)
	go func() {
		for {
			ev := w.Event()
			events <- ev
			<-acks
			if _, ok := ev.(app.DestroyEvent); ok {
				return
			}
		}
	}()
F:
	for {
		select {
		case f := <-v.broker.ToView:
			f()
			w.Invalidate()
		case msg := <-v.broker.ToHost:
			v.handleHostMsg(msg)
			w.Invalidate()
		case <-v.broker.CloseView:
			w.Perform(system.ActionClose)
		case e := <-events:
			switch e := e.(type) {
			case app.DestroyEvent:
				if e.Err != nil {
					log.Println(e.Err)
				}
				acks <- struct{}{}
				break F
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				v.Layout(gtx)
				e.Frame(gtx.Ops)
			}
			acks <- struct{}{}
		}
	}
	v.zoomed.Close()
	v.overview.Close()
	close(v.broker.FinishedView)
}

func (v *Viewer) newWindow() *app.Window {
	w := new(app.Window)
	w.Option(app.Title(v.Title), app.Size(v.preferences.WindowSize()))
	if v.preferences.Window.Maximized {
		w.Option(app.Maximized.Option())
	}
	return w
}

func (v *Viewer) handleHostMsg(msg any) {
	switch e := msg.(type) {
	case tiles.TileLoadFailed:
		log.Printf("tile %d (%s) failed to load: %v", e.Index, e.URL, e.Err)
		v.status = fmt.Sprintf("could not load %s", e.URL)
	case error:
		v.warn(e)
	default:
		log.Printf("unhandled message %T", msg)
	}
}

func (v *Viewer) warn(err error) {
	log.Printf("warning: %v", err)
	v.status = err.Error()
}

func (v *Viewer) Layout(gtx C) {
	now := gtx.Now
	v.update(gtx, now)
	if v.clock.Ended(now) {
		v.clock.Pause(now)
	}
	pos := v.clock.Position(now)
	if v.clock.Playing() {
		gtx.Execute(op.InvalidateCmd{})
	}

	defer clip.Rect(image.Rectangle{Max: gtx.Constraints.Max}).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, v.Theme.Background)
	layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(v.layoutToolbar(pos)),
		layout.Rigid(func(gtx C) D {
			return v.zoomedView.Layout(gtx, v.Theme, pos)
		}),
		layout.Rigid(func(gtx C) D { return v.layoutJoin(gtx) }),
		layout.Rigid(func(gtx C) D {
			// the overview is centered under the zoomed view, as the join assumes
			h := min(v.overview.Track().Height, gtx.Dp(v.preferences.OverviewHeight))
			gtx.Constraints = layout.Exact(image.Pt(gtx.Constraints.Max.X, h))
			defer clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops).Pop()
			return layout.Center.Layout(gtx, func(gtx C) D {
				return v.overviewView.Layout(gtx, v.Theme, pos)
			})
		}),
	)
}

func (v *Viewer) layoutJoin(gtx C) D {
	width := v.zoomed.Viewport().OutputWidth
	height := gtx.Dp(v.Theme.Join.Height)
	if v.join == nil {
		j, err := view.NewJoin(width, v.overview.TileSet().Width, height)
		if err != nil {
			v.warn(err)
			return D{Size: image.Pt(width, height)}
		}
		v.join = j
		v.joinView.Model = j
	} else if err := v.join.Resize(width, v.overview.TileSet().Width); err != nil {
		v.warn(err)
	}
	if err := v.join.SyncFrom(v.zoomed); err != nil {
		v.warn(err)
	}
	return v.joinView.Layout(gtx, v.Theme)
}

func (v *Viewer) layoutToolbar(pos float64) layout.Widget {
	return func(gtx C) D {
		playIcon := icons.AVPlayArrow
		if v.clock.Playing() {
			playIcon = icons.AVPause
		}
		in := v.zoomed.Zoom()+1 < v.zoomed.NumZooms()
		out := v.zoomed.Zoom() > 0
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(IconButton(v.Theme, &v.openBtn, icons.FileFolderOpen, !v.exploring).Layout),
			layout.Rigid(IconButton(v.Theme, &v.playBtn, playIcon, true).Layout),
			layout.Rigid(IconButton(v.Theme, &v.zoomOutBtn, icons.ActionZoomOut, out).Layout),
			layout.Rigid(IconButton(v.Theme, &v.zoomInBtn, icons.ActionZoomIn, in).Layout),
			layout.Rigid(func(gtx C) D {
				return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx C) D {
					return v.Theme.Status.Layout(gtx, v.statusLine(pos))
				})
			}),
		)
	}
}

func (v *Viewer) statusLine(pos float64) string {
	set := v.zoomed.TileSet()
	s := fmt.Sprintf("%s / %s   zoom %d/%d (%d px)",
		beatmap.FormatTime(pos), beatmap.FormatTime(v.zoomed.Track().Length),
		v.zoomed.Zoom()+1, v.zoomed.NumZooms(), set.Width)
	if sel, ok := v.zoomed.Selection(); ok {
		s += fmt.Sprintf("   selection %s - %s", beatmap.FormatTime(sel.In), beatmap.FormatTime(sel.Out))
	}
	if v.status != "" {
		s += "   " + v.status
	}
	return s
}

func (v *Viewer) update(gtx C, now time.Time) {
	for v.playBtn.Clicked(gtx) {
		v.clock.Toggle(now)
	}
	for v.zoomInBtn.Clicked(gtx) {
		v.zoomed.ZoomIn()
	}
	for v.zoomOutBtn.Clicked(gtx) {
		v.zoomed.ZoomOut()
	}
	for v.openBtn.Clicked(gtx) {
		v.chooseManifest()
	}
	if secs, ok := v.zoomedView.Update(gtx); ok {
		v.clock.Seek(now, secs)
	}
	if secs, ok := v.overviewView.Update(gtx); ok {
		v.clock.Seek(now, secs)
	}
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: key.NameSpace},
			key.Filter{Name: key.NameHome},
			key.Filter{Name: key.NameEnd},
			key.Filter{Name: key.NameEscape},
			key.Filter{Name: "+", Optional: key.ModShift},
			key.Filter{Name: "=", Optional: key.ModShift},
			key.Filter{Name: "-"},
			key.Filter{Name: "I"},
			key.Filter{Name: "O"},
		)
		if !ok {
			break
		}
		e, ok := ev.(key.Event)
		if !ok || e.State != key.Press {
			continue
		}
		switch e.Name {
		case key.NameSpace:
			v.clock.Toggle(now)
		case key.NameHome:
			v.clock.Seek(now, 0)
		case key.NameEnd:
			v.clock.Seek(now, v.zoomed.Track().Length)
		case key.NameEscape:
			v.zoomed.ClearSelection()
			v.status = ""
		case "+", "=":
			v.zoomed.ZoomIn()
		case "-":
			v.zoomed.ZoomOut()
		case "I":
			v.zoomed.SetSelectionStart(v.markPosition(now))
		case "O":
			v.zoomed.SetSelectionEnd(v.markPosition(now))
		}
	}
}

// markPosition is the time under the pointer, or the playhead if the pointer
// is not over the zoomed view.
func (v *Viewer) markPosition(now time.Time) float64 {
	if secs, ok := v.zoomed.PointerPositionSeconds(); ok {
		return secs
	}
	return v.clock.Position(now)
}

// chooseManifest asks the user for a manifest and loads it. Relative tile
// sources are resolved against the directory of the chosen file, when the
// platform gives one.
func (v *Viewer) chooseManifest() {
	if v.explorer == nil || v.exploring {
		return
	}
	v.exploring = true
	go func() {
		var m *beatmap.Manifest
		var loader view.LoaderFunc
		var placeholder image.Image
		file, err := v.explorer.ChooseFile(".yml", ".yaml")
		if err == nil {
			var fsys fs.FS
			if f, ok := file.(*os.File); ok {
				fsys = os.DirFS(filepath.Dir(f.Name()))
			}
			loader = view.DirLoader(fsys)
			m, err = beatmap.ReadManifest(file)
			file.Close()
			if err == nil {
				placeholder = LoadPlaceholder(m, loader)
			}
		}
		v.broker.ToView <- func() {
			v.exploring = false
			if err == nil {
				err = v.Load(m, loader, placeholder)
			}
			if err != nil && !errors.Is(err, explorer.ErrUserDecline) {
				v.warn(err)
			}
		}
	}()
}
