package identity

import "strings"

// DefaultCoreValueStrength is the strength a new core value starts with.
const DefaultCoreValueStrength = 50

// AddCoreValue reinforces or inserts a core value at the default strength.
func (m *Manager) AddCoreValue(name, description string) (CoreValue, bool, error) {
	return m.AddCoreValueWithStrength(name, description, DefaultCoreValueStrength)
}

// AddCoreValueWithStrength reinforces an existing value (+10, capped at
// 100) or inserts a new one, then drops weak values that have not been
// reinforced enough. A value inserted by this call is not dropped by it; it
// must survive later evaluations on its own.
//
// The returned bool reports whether the value is still in the active set.
func (m *Manager) AddCoreValueWithStrength(name, description string, strength float64) (CoreValue, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CoreValue{}, false, ErrEmptyName
	}
	strength = clampStrength(strength)

	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := ""
	found := false
	for i := range m.coreValues {
		cv := &m.coreValues[i]
		if cv.Name != name {
			continue
		}
		cv.Strength = clampStrength(cv.Strength + 10)
		cv.Reinforcements++
		found = true
		break
	}
	if !found {
		m.coreValues = append(m.coreValues, CoreValue{
			Name:           name,
			Strength:       strength,
			Description:    description,
			EstablishedAt:  m.now(),
			Reinforcements: 1,
		})
		inserted = name
	}

	m.filterCoreValuesLocked(inserted)

	for _, cv := range m.coreValues {
		if cv.Name == name {
			return cv, true, nil
		}
	}
	return CoreValue{}, false, nil
}

// DecayCoreValues weakens every core value by amount and drops those that
// fall below the threshold without enough reinforcement. It returns the
// names that were dropped.
func (m *Manager) DecayCoreValues(amount float64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.coreValues {
		m.coreValues[i].Strength = clampStrength(m.coreValues[i].Strength - amount)
	}
	return m.filterCoreValuesLocked("")
}

// CoreValues returns a copy of the active core values.
func (m *Manager) CoreValues() []CoreValue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]CoreValue(nil), m.coreValues...)
}

// filterCoreValuesLocked removes values below the threshold with fewer
// than three reinforcements. The value named exempt is always kept.
func (m *Manager) filterCoreValuesLocked(exempt string) []string {
	var dropped []string
	kept := m.coreValues[:0]
	for _, cv := range m.coreValues {
		if cv.Name == exempt || cv.Strength >= m.cfg.CoreValueThreshold || cv.Reinforcements >= reinforcementsToKeep {
			kept = append(kept, cv)
			continue
		}
		dropped = append(dropped, cv.Name)
	}
	m.coreValues = kept
	return dropped
}

func clampStrength(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
