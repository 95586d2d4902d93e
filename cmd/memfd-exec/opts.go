package main

import (
	"github.com/opencontainers/go-digest"
	"github.com/spf13/pflag"
)

// digestValue is a pflag.Value that parses and validates an OCI digest as
// soon as the flag is set.
type digestValue struct {
	d *digest.Digest
}

var _ pflag.Value = (*digestValue)(nil)

func (v *digestValue) Set(s string) error {
	d, err := digest.Parse(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func (v *digestValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v *digestValue) Type() string {
	return "digest"
}
