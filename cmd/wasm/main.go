//go:build js && wasm
// +build js,wasm

package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"syscall/js"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/altimeter"
	"github.com/MeKo-Tech/contourbg/internal/canvas"
	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/typewriter"
)

// moreDelay lets the expand animation of the "more" section settle before
// the page is measured again.
const moreDelay = 800 * time.Millisecond

var (
	window   = js.Global()
	document = js.Global().Get("document")
)

type host struct {
	session *render.Session
	canvas  *canvas.Canvas
	el      js.Value
	ctx     js.Value
	buf     js.Value
	pix     []byte
	opaque  bool
	rng     *rand.Rand
	frame   js.Func
}

func newHost(p profile.Profile) (*host, error) {
	el := document.Call("createElement", "canvas")
	el.Set("id", "bg-canvas")
	style := el.Get("style")
	style.Set("position", "fixed")
	style.Set("top", "0")
	style.Set("left", "0")
	style.Set("zIndex", "-1")
	style.Set("pointerEvents", "none")
	document.Get("body").Call("appendChild", el)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s, err := render.NewSession(p, viewport(), rng)
	if err != nil {
		return nil, err
	}

	h := &host{
		session: s,
		el:      el,
		ctx:     el.Call("getContext", "2d"),
		opaque:  p.FillBackground,
		rng:     rng,
	}
	h.resize()
	h.recompute()
	return h, nil
}

func viewport() render.Viewport {
	return render.Viewport{
		Width:  window.Get("innerWidth").Float(),
		Height: window.Get("innerHeight").Float(),
	}
}

func (h *host) resize() {
	vp := viewport()
	h.session.Resize(vp.Width, vp.Height)
	vp = h.session.Viewport()

	dpr := window.Get("devicePixelRatio").Float()
	if !(dpr > 0) {
		dpr = 1
	}
	w, ht := int(math.Ceil(vp.Width*dpr)), int(math.Ceil(vp.Height*dpr))
	h.el.Set("width", w)
	h.el.Set("height", ht)
	h.el.Get("style").Set("width", fmt.Sprintf("%.0fpx", vp.Width))
	h.el.Get("style").Set("height", fmt.Sprintf("%.0fpx", vp.Height))

	h.canvas = canvas.NewScaled(w, ht, dpr)
	h.pix = make([]byte, w*ht*4)
	h.buf = js.Global().Get("Uint8ClampedArray").New(len(h.pix))
}

// recompute measures the document like the page layout sees it and
// refreshes the scroll position and altimeter against the new extent.
func (h *host) recompute() {
	body := document.Get("body").Get("scrollHeight").Float()
	doc := document.Get("documentElement").Get("scrollHeight").Float()
	h.session.Remeasure(body, doc, window.Get("scrollY").Float())
	h.updateAltimeter()
}

func (h *host) onScroll() {
	h.session.ScrollTo(window.Get("scrollY").Float())
	h.updateAltimeter()
}

func (h *host) tick() {
	h.session.Tick(h.canvas)
	copyPixels(h.pix, h.canvas.Image().Pix, h.opaque)
	js.CopyBytesToJS(h.buf, h.pix)

	w, ht := h.canvas.Size()
	img := js.Global().Get("ImageData").New(h.buf, w, ht)
	h.ctx.Call("putImageData", img, 0, 0)
}

// copyPixels converts premultiplied RGBA into the straight alpha expected by
// ImageData.
func copyPixels(dst, src []byte, opaque bool) {
	if opaque {
		copy(dst, src)
		return
	}
	for i := 0; i+3 < len(src); i += 4 {
		a := src[i+3]
		if a == 0 || a == 255 {
			copy(dst[i:i+4], src[i:i+4])
			continue
		}
		for c := 0; c < 3; c++ {
			dst[i+c] = uint8(min(255, int(src[i+c])*255/int(a)))
		}
		dst[i+3] = a
	}
}

func (h *host) updateAltimeter() {
	t := h.session.Tracker()
	r := altimeter.Read(t.Offset(), t.Extent(), h.session.Viewport().Height, h.rng)

	if marker := document.Call("getElementById", "alt-marker"); !marker.IsNull() {
		marker.Get("style").Set("top", fmt.Sprintf("%g%%", r.MarkerTop))
		marker.Get("classList").Call("toggle", "show-rtb", r.ShowReturn)
	}
	if val := document.Call("getElementById", "alt-val"); !val.IsNull() {
		val.Set("innerText", r.Display)
	}
	if btn := document.Call("getElementById", "mobile-rtb"); !btn.IsNull() {
		btn.Get("classList").Call("toggle", "visible", r.ShowMobileReturn)
	}
}

func (h *host) loop() {
	h.frame = js.FuncOf(func(this js.Value, args []js.Value) any {
		h.tick()
		window.Call("requestAnimationFrame", h.frame)
		return nil
	})
	window.Call("requestAnimationFrame", h.frame)
}

// parseSegments reads the typed text out of a container: text nodes become
// unstyled segments, elements keep their class.
func parseSegments(container js.Value) []typewriter.Segment {
	var segs []typewriter.Segment
	nodes := container.Get("childNodes")
	for i := 0; i < nodes.Length(); i++ {
		n := nodes.Index(i)
		switch n.Get("nodeType").Int() {
		case 3:
			segs = append(segs, typewriter.Segment{Text: n.Get("textContent").String()})
		case 1:
			segs = append(segs, typewriter.Segment{Text: n.Get("textContent").String(), Class: n.Get("className").String()})
		}
	}
	return segs
}

func renderSpans(container js.Value, spans []typewriter.Span) {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(`<span`)
		if sp.Class != "" {
			fmt.Fprintf(&b, ` class="%s"`, escape(sp.Class))
		}
		b.WriteString(`>`)
		b.WriteString(escape(sp.Text))
		b.WriteString(`</span>`)
	}
	container.Set("innerHTML", b.String())
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return htmlEscaper.Replace(s) }

// startTypewriter types the bilingual hero line when both containers exist.
func startTypewriter() {
	cn := document.Call("getElementById", "type-cn")
	en := document.Call("getElementById", "type-en")
	if cn.IsNull() || en.IsNull() {
		return
	}

	w := typewriter.New(parseSegments(cn), parseSegments(en))
	cn.Set("innerHTML", "")
	en.Set("innerHTML", "")

	go func() {
		_ = w.Run(context.Background(), typewriter.DefaultStartDelay, typewriter.DefaultInterval, func() {
			renderSpans(cn, w.Track(0).Spans())
			renderSpans(en, w.Track(1).Spans())
		})
		waiting := document.Call("querySelectorAll", ".wait-for-typewriter")
		for i := 0; i < waiting.Length(); i++ {
			waiting.Index(i).Get("classList").Call("add", "show")
		}
		time.Sleep(time.Second)
		cn.Get("classList").Call("add", "finished")
		en.Get("classList").Call("add", "finished")
	}()
}

func toggleLanguage() {
	btn := document.Call("getElementById", "lang-switch")
	if btn.IsNull() {
		return
	}
	body := document.Get("body")
	body.Get("classList").Call("toggle", "en-mode")

	lang := typewriter.Chinese
	if body.Get("classList").Call("contains", "en-mode").Bool() {
		lang = typewriter.English
	}
	if lang == typewriter.English {
		btn.Set("textContent", "中")
	} else {
		btn.Set("textContent", "EN")
	}
	window.Get("localStorage").Call("setItem", "preferred-lang", string(lang))
}

func selectedProfile() profile.Profile {
	name := profile.DefaultName
	if v := window.Get("contourbgProfile"); v.Type() == js.TypeString {
		name = v.String()
	}
	p, err := profile.Load(name, "")
	if err != nil {
		fmt.Println("contourbg:", err)
		return profile.Default()
	}
	return p
}

func main() {
	h, err := newHost(selectedProfile())
	if err != nil {
		fmt.Println("contourbg: failed to start:", err)
		return
	}

	window.Call("addEventListener", "scroll", js.FuncOf(func(this js.Value, args []js.Value) any {
		h.onScroll()
		return nil
	}))
	window.Call("addEventListener", "resize", js.FuncOf(func(this js.Value, args []js.Value) any {
		h.resize()
		h.recompute()
		return nil
	}))
	window.Call("addEventListener", "load", js.FuncOf(func(this js.Value, args []js.Value) any {
		h.recompute()
		return nil
	}))

	window.Set("contourbgScrollPercent", js.FuncOf(func(this js.Value, args []js.Value) any {
		return h.session.Percentage()
	}))
	recompute := js.FuncOf(func(this js.Value, args []js.Value) any {
		h.recompute()
		return nil
	})
	window.Set("contourbgRecompute", recompute)

	// Late images and reflows change the body height without a resize.
	if ro := js.Global().Get("ResizeObserver"); ro.Truthy() {
		ro.New(recompute).Call("observe", document.Get("body"))
	}
	window.Set("contourbgToggleMore", js.FuncOf(func(this js.Value, args []js.Value) any {
		id := "moreGrid"
		if len(args) > 0 && args[0].Type() == js.TypeString {
			id = args[0].String()
		}
		if grid := document.Call("getElementById", id); !grid.IsNull() {
			grid.Get("classList").Call("toggle", "open")
		}
		window.Call("setTimeout", recompute, moreDelay.Milliseconds())
		return nil
	}))
	window.Set("contourbgToggleLanguage", js.FuncOf(func(this js.Value, args []js.Value) any {
		toggleLanguage()
		return nil
	}))

	if window.Get("localStorage").Call("getItem", "preferred-lang").String() == string(typewriter.English) {
		toggleLanguage()
	}
	startTypewriter()
	h.updateAltimeter()
	h.loop()

	fmt.Println("contourbg WASM module loaded")
	select {}
}
