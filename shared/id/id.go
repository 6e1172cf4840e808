// Package id provides ID generation helpers used across the project.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const (
	PrefixCheck    = "chk"
	PrefixToolCall = "call"
	PrefixMatch    = "match"
)

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewWithLength(prefix string, length int) string {
	id, err := nanoid.New(length)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewCheck() string    { return New(PrefixCheck) }
func NewToolCall() string { return New(PrefixToolCall) }
func NewMatch() string    { return New(PrefixMatch) }
