// bird-finder - locate and confirm small moving subjects in camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package finder

// Profile selects one of the built in parameter sets used by the engine.
type Profile int

const (
	Outdoor Profile = iota
	IndoorDebug
	Windy
)

// Thresholds holds the tuning values for a Profile.
type Thresholds struct {
	MinAreaFrac       float64
	MaxAreaFrac       float64
	ActiveRatioMax    float64
	StabilityRequired int
}

var profiles = map[Profile]struct {
	preference string
	label      string
	thresholds Thresholds
}{
	Outdoor: {"OUTDOOR", "Outdoor", Thresholds{
		MinAreaFrac:       0.008,
		MaxAreaFrac:       0.15,
		ActiveRatioMax:    0.12,
		StabilityRequired: 2,
	}},
	IndoorDebug: {"INDOOR_DEBUG", "Indoor Debug", Thresholds{
		MinAreaFrac:       0.008,
		MaxAreaFrac:       0.15,
		ActiveRatioMax:    0.25,
		StabilityRequired: 1,
	}},
	Windy: {"WINDY", "Windy", Thresholds{
		MinAreaFrac:       0.010,
		MaxAreaFrac:       0.20,
		ActiveRatioMax:    0.10,
		StabilityRequired: 3,
	}},
}

// Profiles returns every built in profile in declaration order.
func Profiles() []Profile {
	return []Profile{Outdoor, IndoorDebug, Windy}
}

// ProfileFromPreference maps a stored preference value to a Profile.
// Anything unrecognised falls back to Outdoor.
func ProfileFromPreference(value string) Profile {
	for _, p := range Profiles() {
		if profiles[p].preference == value {
			return p
		}
	}
	return Outdoor
}

func (p Profile) valid() Profile {
	if _, ok := profiles[p]; ok {
		return p
	}
	return Outdoor
}

// Thresholds returns the parameter set for the profile.
func (p Profile) Thresholds() Thresholds {
	return profiles[p.valid()].thresholds
}

// PreferenceValue is the string stored in preferences and config files.
func (p Profile) PreferenceValue() string {
	return profiles[p.valid()].preference
}

// Label is the human readable name.
func (p Profile) Label() string {
	return profiles[p.valid()].label
}

func (p Profile) String() string {
	return p.PreferenceValue()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Profile) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*p = ProfileFromPreference(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Profile) MarshalYAML() (interface{}, error) {
	return p.PreferenceValue(), nil
}
