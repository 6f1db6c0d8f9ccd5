package fs

import (
	"context"
	"encoding/json"

	"zen-manager/internal/shell"
)

type pathArgs struct {
	Path      string        `json:"path"`
	BaseDir   BaseDirectory `json:"baseDir"`
	Recursive bool          `json:"recursive"`
}

type writeArgs struct {
	pathArgs
	WriteOptions
	Contents string `json:"contents"`
	Data     []byte `json:"data"`
}

type watchArgs struct {
	ID uint64 `json:"id"`
}

func (p *Plugin) Commands() map[string]shell.CommandFunc {
	return map[string]shell.CommandFunc{
		"exists": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return p.Exists(a.BaseDir, a.Path)
		},
		"mkdir": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, p.Mkdir(a.BaseDir, a.Path, a.Recursive)
		},
		"read_file": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return p.ReadFile(a.BaseDir, a.Path)
		},
		"read_text_file": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return p.ReadTextFile(a.BaseDir, a.Path)
		},
		"write_file": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a writeArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, p.WriteFile(a.BaseDir, a.Path, a.Data, a.WriteOptions)
		},
		"write_text_file": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a writeArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, p.WriteTextFile(a.BaseDir, a.Path, a.Contents, a.WriteOptions)
		},
		"remove": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, p.Remove(a.BaseDir, a.Path, a.Recursive)
		},
		"read_dir": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return p.ReadDir(a.BaseDir, a.Path)
		},
		"watch": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a pathArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return p.Watch(a.BaseDir, a.Path, a.Recursive)
		},
		"unwatch": func(_ context.Context, raw json.RawMessage) (interface{}, error) {
			var a watchArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}
			return nil, p.Unwatch(a.ID)
		},
	}
}
