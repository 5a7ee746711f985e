package indexmanager

import "github.com/markramm/pyrite/pkg/model"

// BeforeSaveHook may mutate entry in place before it is persisted, or
// return a non-nil error to abort the upsert (spec.md §4.8). The returned
// error is wrapped as backend.ErrPlugin by the Manager.
type BeforeSaveHook func(entry *model.Entry) error

// AfterSaveHook observes a successfully persisted entry. It returns
// nothing; a panic in it is recovered and logged by the Manager and never
// reaches the caller.
type AfterSaveHook func(entry *model.Entry)

// BeforeDeleteHook may abort a delete by returning a non-nil error.
type BeforeDeleteHook func(id, kbName string) error

// AfterDeleteHook observes a completed delete.
type AfterDeleteHook func(id, kbName string)

// Hooks is the capability interface plugins register against, injected
// into the Manager at construction (spec.md §4.1's "plugin hooks as
// dynamic callbacks" design note). The zero value runs no hooks.
type Hooks struct {
	BeforeSave   []BeforeSaveHook
	AfterSave    []AfterSaveHook
	BeforeDelete []BeforeDeleteHook
	AfterDelete  []AfterDeleteHook
}

func (h *Hooks) OnBeforeSave(fn BeforeSaveHook)     { h.BeforeSave = append(h.BeforeSave, fn) }
func (h *Hooks) OnAfterSave(fn AfterSaveHook)       { h.AfterSave = append(h.AfterSave, fn) }
func (h *Hooks) OnBeforeDelete(fn BeforeDeleteHook) { h.BeforeDelete = append(h.BeforeDelete, fn) }
func (h *Hooks) OnAfterDelete(fn AfterDeleteHook)   { h.AfterDelete = append(h.AfterDelete, fn) }
