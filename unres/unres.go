// Copyright (c) 2017-2021, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package unres implements the resolver (spec.md §4.4): a work queue of
// forward references, drained to a fixed point by repeated scanning.
// Each recorded reference owns its own resolution closure so this package
// stays decoupled from the statement parser and schema packages that
// create the references; it only drives fairness and termination.
package unres

import (
	"github.com/danos/yangschema/yerr"
	log "github.com/sirupsen/logrus"
)

// Kind identifies the nine-and-more reference kinds of spec.md §4.4.
type Kind int

const (
	ModuleRef Kind = iota
	TypeDer
	TypeDerTypedef
	TypeLeafref
	TypeIdentref
	TypeDefault
	Iffeat
	IdentityBase
	Uses
	Augment
	Deviation
	ChoiceDefault
	ListKeys
	ListUnique
)

func (k Kind) String() string {
	names := [...]string{
		"ModuleRef", "TypeDer", "TypeDerTypedef", "TypeLeafref",
		"TypeIdentref", "TypeDefault", "Iffeat", "IdentityBase", "Uses",
		"Augment", "Deviation", "ChoiceDefault", "ListKeys", "ListUnique",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Resolve attempts to settle a reference. ok==true means the entry is
// done and should leave the queue (whether or not it made any other
// change). ok==false, err==nil is a *soft* failure: not resolvable this
// pass, try again later. err!=nil is a *hard* failure: the reference will
// never resolve (spec.md §4.4) and the whole load must fail.
type Resolve func() (ok bool, err error)

// Ref is one entry in the unres set.
type Ref struct {
	Kind    Kind
	Path    []string
	Detail  string
	Resolve Resolve
}

// Resolver owns the work queue and drains it to a fixed point.
type Resolver struct {
	queue []*Ref
	log   *log.Entry
}

func New(logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Resolver{log: logger}
}

// Add enqueues ref. Order of Add calls is the fairness order within a
// pass (spec.md §4.4: "no priority queue, only fairness via repetition").
func (r *Resolver) Add(ref *Ref) {
	r.queue = append(r.queue, ref)
}

// Pending reports the number of entries still queued.
func (r *Resolver) Pending() int { return len(r.queue) }

// Run drains the queue to a fixed point: repeated full passes until
// either the queue is empty (success) or a full pass resolves nothing
// (failure, reporting the first entry that made no progress). A hard
// failure from any entry's Resolve aborts immediately.
func (r *Resolver) Run() error {
	for len(r.queue) > 0 {
		var remaining []*Ref
		progressed := false
		for _, ref := range r.queue {
			ok, err := ref.Resolve()
			if err != nil {
				r.log.WithField("kind", ref.Kind).WithError(err).Debug("unres: hard failure")
				return err
			}
			if ok {
				progressed = true
				continue
			}
			remaining = append(remaining, ref)
		}
		r.queue = remaining
		if !progressed {
			if len(r.queue) == 0 {
				return nil
			}
			stuck := r.queue[0]
			r.log.WithField("kind", stuck.Kind).Debug("unres: stuck, no progress in full pass")
			return yerr.NewUnresolvedReference(stuck.Path, stuck.Kind.String(), stuck.Detail)
		}
		r.log.WithField("remaining", len(r.queue)).Debug("unres: pass complete")
	}
	return nil
}
