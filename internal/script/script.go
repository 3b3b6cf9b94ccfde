// Package script implements the per-post transformation layer of spec §4.8:
// running a user's Lua body against a post draft, with read/write access to
// the post's mutable fields and read-only access to its feed and source.
//
// Grounded on github.com/yuin/gopher-lua, the only embeddable-Lua library
// present in the pack's dependency graph (brandon-relentnet-myscrollr/api
// carries it as an indirect requirement) and a direct match for the
// engine's ScriptTypeLua contract (spec §3/§4.8).
package script

import (
	"fmt"

	"github.com/gofrs/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/zapfr/engine/internal/entity"
)

// Engine runs Script bodies against Post drafts (spec §4.8).
type Engine struct{}

// New returns a ready-to-use script Engine. Scripts are single-threaded per
// invocation (spec §4.8): callers must not share an Engine's state across
// goroutines concurrently running the same post, though the zero-value
// Engine itself holds no state and is safe to share.
func New() *Engine {
	return &Engine{}
}

// Run executes scripts in order against post, mutating it in place. Per
// spec §4.8/§7, a panicking or erroring script is recovered, logged against
// feed, and skipped — the post keeps whatever mutations preceding scripts
// applied, and the next script still runs.
func (e *Engine) Run(scripts []*entity.Script, source *entity.Source, feed *entity.Feed, post *entity.Post, onError func(script *entity.Script, err error)) {
	for _, s := range scripts {
		if err := e.runOne(s, source, feed, post); err != nil {
			if onError != nil {
				onError(s, err)
			}
			continue
		}
	}
}

// runOne executes a single script body against post, recovering any Lua
// panic as an error (spec: "A script exception is caught ... and skipped").
func (e *Engine) runOne(s *entity.Script, source *entity.Source, feed *entity.Feed, post *entity.Post) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script %q panicked: %v", s.Title, r)
		}
	}()

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("post", postTable(L, post))
	L.SetGlobal("feed", feedTable(L, feed))
	L.SetGlobal("source", sourceTable(L, source))

	if derr := L.DoString(s.Body); derr != nil {
		return fmt.Errorf("script %q: %w", s.Title, derr)
	}

	applyPostTable(L, post)
	return nil
}

// postTable builds the mutable post userdata exposed to the script body:
// title, link, content, author, thumbnail, enclosures, categories, flags
// and read state (spec §4.8).
func postTable(L *lua.LState, p *entity.Post) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("title", lua.LString(p.Title))
	t.RawSetString("link", lua.LString(p.Link))
	t.RawSetString("content", lua.LString(p.Content))
	t.RawSetString("author", lua.LString(p.Author))
	t.RawSetString("thumbnail", lua.LString(p.Thumbnail))
	t.RawSetString("guid", lua.LString(p.GUID))
	t.RawSetString("isRead", lua.LBool(p.IsRead))

	enclosures := L.NewTable()
	for _, enc := range p.Enclosures {
		et := L.NewTable()
		et.RawSetString("url", lua.LString(enc.URL))
		et.RawSetString("size", lua.LNumber(enc.Size))
		et.RawSetString("mime", lua.LString(enc.Mime))
		enclosures.Append(et)
	}
	t.RawSetString("enclosures", enclosures)

	categories := L.NewTable()
	for _, c := range p.Categories {
		categories.Append(lua.LString(c))
	}
	t.RawSetString("categories", categories)

	flags := L.NewTable()
	for _, f := range p.Flags {
		flags.Append(lua.LString(string(f)))
	}
	t.RawSetString("flags", flags)

	scriptFolders := L.NewTable()
	for _, id := range p.ScriptFolders {
		scriptFolders.Append(lua.LString(id.String()))
	}
	t.RawSetString("scriptfolders", scriptFolders)

	return t
}

func feedTable(L *lua.LState, f *entity.Feed) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(f.ID.String()))
	t.RawSetString("url", lua.LString(f.URL))
	t.RawSetString("title", lua.LString(f.Title))
	t.RawSetString("link", lua.LString(f.Link))
	t.RawSetString("language", lua.LString(f.Language))
	return t
}

func sourceTable(L *lua.LState, s *entity.Source) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(s.ID.String()))
	t.RawSetString("title", lua.LString(s.Title))
	t.RawSetString("type", lua.LString(string(s.Type)))
	return t
}

// applyPostTable copies the (possibly mutated) Lua post table's scalar and
// list fields back onto post.
func applyPostTable(L *lua.LState, p *entity.Post) {
	pt, ok := L.GetGlobal("post").(*lua.LTable)
	if !ok {
		return
	}
	p.Title = luaString(pt.RawGetString("title"), p.Title)
	p.Link = luaString(pt.RawGetString("link"), p.Link)
	p.Content = luaString(pt.RawGetString("content"), p.Content)
	p.Author = luaString(pt.RawGetString("author"), p.Author)
	p.Thumbnail = luaString(pt.RawGetString("thumbnail"), p.Thumbnail)
	if b, ok := pt.RawGetString("isRead").(lua.LBool); ok {
		p.IsRead = bool(b)
	}

	if cats, ok := pt.RawGetString("categories").(*lua.LTable); ok {
		var out []string
		cats.ForEach(func(_, v lua.LValue) {
			out = append(out, v.String())
		})
		p.Categories = out
	}

	if flags, ok := pt.RawGetString("flags").(*lua.LTable); ok {
		var out []entity.FlagColor
		flags.ForEach(func(_, v lua.LValue) {
			out = append(out, entity.FlagColor(v.String()))
		})
		p.Flags = out
	}

	if sfs, ok := pt.RawGetString("scriptfolders").(*lua.LTable); ok {
		var out []uuid.UUID
		sfs.ForEach(func(_, v lua.LValue) {
			if id, err := uuid.FromString(v.String()); err == nil {
				out = append(out, id)
			}
		})
		p.ScriptFolders = out
	}

	if encs, ok := pt.RawGetString("enclosures").(*lua.LTable); ok {
		var out []entity.Enclosure
		encs.ForEach(func(_, v lua.LValue) {
			et, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			out = append(out, entity.Enclosure{
				URL:  luaString(et.RawGetString("url"), ""),
				Size: int64(lua.LVAsNumber(et.RawGetString("size"))),
				Mime: luaString(et.RawGetString("mime"), ""),
			})
		})
		p.Enclosures = out
	}
}

func luaString(v lua.LValue, fallback string) string {
	if v == lua.LNil {
		return fallback
	}
	return v.String()
}
