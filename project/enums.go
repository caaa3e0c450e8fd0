package project

import (
	"fmt"
	"strings"
)

type Standard int

const (
	StandardDefault Standard = iota
	CPP98
	CPP03
	CPP11
	CPP14
	CPP17
	CPP20
)

var standardNames = map[Standard]string{
	StandardDefault: "",
	CPP98:           "c++98",
	CPP03:           "c++03",
	CPP11:           "c++11",
	CPP14:           "c++14",
	CPP17:           "c++17",
	CPP20:           "c++20",
}

func (s Standard) String() string {
	if name, ok := standardNames[s]; ok && name != "" {
		return name
	}
	return "default"
}

// ParseStandard accepts "c++17", "17" and "" (default)
func ParseStandard(s string) (Standard, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "default" {
		return StandardDefault, nil
	}
	if !strings.HasPrefix(s, "c++") {
		s = "c++" + s
	}
	for std, name := range standardNames {
		if name == s {
			return std, nil
		}
	}
	return StandardDefault, fmt.Errorf("unknown language standard %q", s)
}

func (s *Standard) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStandard(string(text))
	return
}

type BuildType int

const (
	BuildTypeDefault BuildType = iota
	Debug
	Release
	MinSize
)

func (b BuildType) String() string {
	switch b {
	case Debug:
		return "debug"
	case Release:
		return "release"
	case MinSize:
		return "minsize"
	default:
		return "default"
	}
}

func ParseBuildType(s string) (BuildType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return BuildTypeDefault, nil
	case "debug":
		return Debug, nil
	case "release":
		return Release, nil
	case "minsize", "min-size", "minsizerel":
		return MinSize, nil
	}
	return BuildTypeDefault, fmt.Errorf("unknown build type %q", s)
}

func (b *BuildType) UnmarshalText(text []byte) (err error) {
	*b, err = ParseBuildType(string(text))
	return
}

// Flag is a tri-state compiler feature switch
type Flag int

const (
	FlagDefault Flag = iota
	On
	Off
)

func (f Flag) String() string {
	switch f {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "default"
	}
}

func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return FlagDefault, nil
	case "on", "true", "yes":
		return On, nil
	case "off", "false", "no":
		return Off, nil
	}
	return FlagDefault, fmt.Errorf("unknown flag value %q (want on, off or default)", s)
}

func (f *Flag) UnmarshalText(text []byte) (err error) {
	*f, err = ParseFlag(string(text))
	return
}

type TargetType int

const (
	Executable TargetType = iota
	StaticLibrary
	SharedLibrary
	MacOSBundle
)

func (t TargetType) String() string {
	switch t {
	case Executable:
		return "executable"
	case StaticLibrary:
		return "static"
	case SharedLibrary:
		return "shared"
	case MacOSBundle:
		return "bundle"
	default:
		return fmt.Sprintf("TargetType(%d)", int(t))
	}
}

func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "executable", "exe", "bin":
		return Executable, nil
	case "static", "static-library", "staticlib":
		return StaticLibrary, nil
	case "shared", "shared-library", "sharedlib":
		return SharedLibrary, nil
	case "bundle", "macos-bundle":
		return MacOSBundle, nil
	}
	return Executable, fmt.Errorf("unknown target type %q", s)
}

func (t *TargetType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseTargetType(string(text))
	return
}
