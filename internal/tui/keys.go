package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the global key bindings of the shell. Everything else is
// handled by the active view.
type KeyMap struct {
	Back   Key
	Quit   Key
	Help   Key
	Logout Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F5  Key
	F6  Key
	F7  Key
	F8  Key
	F9  Key
	F10 Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Back: Key{
			Keys:    []string{"esc"},
			Help:    "volver",
			Enabled: true,
		},
		Quit: Key{
			Keys:    []string{"q", "ctrl+c"},
			Help:    "salir",
			Enabled: true,
		},
		Help: Key{
			Keys:    []string{"?"},
			Help:    "ayuda",
			Enabled: true,
		},
		Logout: Key{
			Keys:    []string{"L"},
			Help:    "cerrar sesión",
			Enabled: true,
		},

		F1:  Key{Keys: []string{"f1"}, Help: "Ayuda", Enabled: true},
		F2:  Key{Keys: []string{"f2"}, Help: "Inicio", Enabled: true},
		F3:  Key{Keys: []string{"f3"}, Help: "Insumos", Enabled: true},
		F4:  Key{Keys: []string{"f4"}, Help: "Recetas", Enabled: true},
		F5:  Key{Keys: []string{"f5"}, Help: "Menús", Enabled: true},
		F6:  Key{Keys: []string{"f6"}, Help: "Planificador", Enabled: true},
		F7:  Key{Keys: []string{"f7"}, Help: "Reportes", Enabled: true},
		F8:  Key{Keys: []string{"f8"}, Help: "Usuarios", Enabled: true},
		F9:  Key{Keys: []string{"f9"}, Help: "Sucursal", Enabled: true},
		F10: Key{Keys: []string{"f10"}, Help: "Salir", Enabled: true},
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// IsFunctionKey checks if the key message is a function key.
func (km KeyMap) IsFunctionKey(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.F1, km.F2, km.F3, km.F4, km.F5,
		km.F6, km.F7, km.F8, km.F9, km.F10)
}

// GetFunctionKeyModule returns the module bound to a function key, or ""
// for keys that are not module switches.
func (km KeyMap) GetFunctionKeyModule(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleDashboard
	case km.F3.Matches(msg):
		return ModuleFoods
	case km.F4.Matches(msg):
		return ModuleRecipes
	case km.F5.Matches(msg):
		return ModuleMenus
	case km.F6.Matches(msg):
		return ModulePlanner
	case km.F7.Matches(msg):
		return ModuleReports
	case km.F8.Matches(msg):
		return ModuleUsers
	case km.F9.Matches(msg):
		return ModuleBranch
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar. The users entry
// is listed only for administrators.
func (km KeyMap) StatusBarHelp(admin bool, width int) string {
	if GetBreakpoint(width) == BreakpointNarrow {
		return "[F1]Ayuda [F9]Sucursal [F10]Salir"
	}
	help := "[F1]Ayuda [F2]Inicio [F3]Insumos [F4]Recetas [F5]Menús [F6]Plan [F7]Reportes"
	if admin {
		help += " [F8]Usuarios"
	}
	return help + " [F9]Sucursal [F10]Salir"
}
