package server

import (
	"context"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/rotisserie/eris"

	"github.com/milk9111/tractorbeam/prefabs"
)

const DefaultChatScript = "chat.tengo"

// Emote is what a chat line asked to spawn.
type Emote struct {
	Name string
	URL  string
}

// ChatTrigger runs the chat script against each chat line. The script sees
// `line` and `username` and may set `emote` to a map with name and url.
type ChatTrigger struct {
	compiled *tengo.Compiled
}

func NewChatTrigger(path string) (*ChatTrigger, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultChatScript
	}
	src, err := prefabs.LoadScript(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load chat script %q", path)
	}

	script := tengo.NewScript(src)
	_ = script.Add("line", "")
	_ = script.Add("username", "")
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, eris.Wrapf(err, "compile chat script %q", path)
	}
	return &ChatTrigger{compiled: compiled}, nil
}

// Match returns the emote a line triggers, if any.
func (c *ChatTrigger) Match(ctx context.Context, username, line string) (Emote, bool, error) {
	run := c.compiled.Clone()

	if err := run.Set("line", line); err != nil {
		return Emote{}, false, eris.Wrap(err, "set line")
	}
	if err := run.Set("username", username); err != nil {
		return Emote{}, false, eris.Wrap(err, "set username")
	}
	if err := run.RunContext(ctx); err != nil {
		return Emote{}, false, eris.Wrap(err, "run chat script")
	}
	if !run.IsDefined("emote") {
		return Emote{}, false, nil
	}
	v := run.Get("emote")
	if v.IsUndefined() {
		return Emote{}, false, nil
	}
	m := v.Map()
	name, _ := m["name"].(string)
	url, _ := m["url"].(string)
	if name == "" || url == "" {
		return Emote{}, false, nil
	}
	return Emote{Name: name, URL: url}, true, nil
}
