// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// RuleFile is the on-disk form of a rule list.
type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file and builds a RuleSet from its rules in
// file order. The fallback is always appended.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file %s: %w", path, err)
	}

	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		return nil, fmt.Errorf("rule file %s defines no rules", path)
	}

	rs, err := NewRuleSet(rf.Rules)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return rs, nil
}

// WriteRules saves rs to path in the format LoadRules reads.
func WriteRules(path string, rs *RuleSet) error {
	data, err := yaml.Marshal(RuleFile{Rules: rs.Rules()})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in rule set. It panics only if the built-in
// table is malformed, which the package tests rule out.
func Default() *RuleSet {
	rs, err := NewRuleSet(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("explain: invalid built-in rules: %v", err))
	}
	return rs
}

// Load returns the rule set from path, or the built-in set when path is empty.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadRules(path)
}

func allOf(terms ...string) Terms { return Terms{All: terms} }
func anyOf(terms ...string) Terms { return Terms{Any: terms} }

var fuseStem = anyOf("fuse", "circuit breaker")

// DefaultRules returns the built-in Technician-pool rules in priority order.
// Rules that inspect the selected answer precede rules keyed on the stem
// alone, and multi-keyword rules precede single-keyword rules on the same
// topic.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "battery-short",
			Stem:   allOf("battery"),
			Answer: allOf("short"),
			Text:   "Shorting a battery's terminals creates an extremely low-resistance path, allowing dangerously high current flow. This generates intense heat that can cause severe burns, ignite fires, or cause the battery to explode as rapid electrolysis releases flammable hydrogen gas.",
		},
		{
			Name:   "battery-overheat",
			Stem:   allOf("battery"),
			Answer: anyOf("overheat", "gas"),
			Text:   "Rapid charging or discharging causes excessive current flow, generating heat and accelerating chemical reactions that produce potentially explosive hydrogen and oxygen gases.",
		},
		{
			Name: "current-through-body",
			Stem: allOf("current", "body"),
			Text: "Electrical current through the body causes multiple types of injury: resistive heating of tissue, disruption of the nervous system's electrical signals (especially dangerous for the heart), and involuntary muscle contractions that can cause falls or prevent releasing a live conductor.",
		},
		{
			Name: "wire-color-code",
			Stem: allOf("wire", "black"),
			Text: "In standard US electrical wiring, color coding identifies conductors: black indicates the hot (ungrounded) conductor carrying current, white indicates the neutral (grounded) conductor, and green or bare copper indicates the safety ground.",
		},
		{
			Name:   "fuse-overload",
			Stem:   fuseStem,
			Answer: allOf("overload"),
			Text:   "Fuses and circuit breakers are overcurrent protection devices designed to interrupt excessive current flow, preventing overheating, fires, and equipment damage. They must be properly sized and installed to function correctly.",
		},
		{
			Name:   "fuse-hot-conductor",
			Stem:   fuseStem,
			Answer: allOf("hot"),
			Text:   "Protective devices should be installed only in the ungrounded (hot) conductor. This ensures proper circuit interruption while maintaining the safety function of the grounded neutral and preventing shock hazards.",
		},
		{
			Name:   "fuse-oversized",
			Stem:   fuseStem,
			Answer: allOf("fire"),
			Text:   "Using an oversized fuse defeats overcurrent protection. A fault that should trip a 5A fuse could allow up to 20A to flow, potentially overheating conductors and causing fires before the larger fuse opens.",
		},
		{
			Name:   "ground-bonding",
			Stem:   allOf("ground"),
			Answer: allOf("bond"),
			Text:   "Bonding all ground rods together ensures they're at the same electrical potential, preventing dangerous voltage differences. This provides a reliable, low-resistance path for fault currents and lightning to safely reach earth.",
		},
		{
			Name: "lightning-arrester",
			Stem: anyOf("lightning", "arrester"),
			Text: "Lightning arresters protect equipment by diverting electrical surges to ground before they can enter the building. They must be installed at the entry point of feed lines on a properly grounded panel to be effective.",
		},
		{
			Name: "voltage-measurement",
			Stem: allOf("voltage", "measure"),
			Text: "Using test equipment not rated for the voltage being measured can cause insulation breakdown, arcing, equipment failure, and severe electrical shock. Equipment voltage ratings must equal or exceed the maximum voltage encountered.",
		},
		{
			Name: "electrical-shock",
			Stem: allOf("electrical", "shock"),
			Text: "Multiple safety measures work together: three-wire cords provide proper grounding, common safety grounds prevent potential differences, and mechanical interlocks prevent accidental contact with energized circuits.",
		},
		{
			Name: "rf-exposure",
			Stem: allOf("rf", "exposure"),
			Text: "RF exposure limits protect against potential health effects of radio frequency energy. Limits vary with frequency because the body absorbs RF energy differently at different frequencies. Exposure depends on power level, distance, antenna pattern, and duty cycle.",
		},
		{
			Name:   "non-ionizing-radiation",
			Stem:   allOf("radiation"),
			Answer: allOf("non-ionizing"),
			Text:   "Radio signals are non-ionizing radiation, meaning they don't have enough energy to remove electrons from atoms or break chemical bonds. Unlike ionizing radiation (X-rays, gamma rays), RF energy primarily affects tissue through heating.",
		},
		{
			Name: "rf-burn",
			Stem: allOf("rf burn"),
			Text: rfBurnText,
		},
		{
			Name: "rf-burn-touch-antenna",
			Stem: allOf("touch", "antenna"),
			Text: rfBurnText,
		},
		{
			Name: "repeater-offset",
			Stem: allOf("repeater", "offset"),
			Text: "Repeater offset is the frequency difference between the repeater's input (where you transmit) and output (where you receive) frequencies. This separation prevents interference and allows simultaneous transmit and receive operation.",
		},
		{
			Name: "ctcss",
			Stem: allOf("ctcss"),
			Text: ctcssText,
		},
		{
			Name:   "ctcss-sub-audible-tone",
			Stem:   allOf("tone"),
			Answer: allOf("sub"),
			Text:   ctcssText,
		},
		{
			Name: "repeater",
			Stem: allOf("repeater"),
			Text: "Repeaters receive signals on one frequency and retransmit them on another, extending communication range. They use offsets, CTCSS tones, and other features to manage access and prevent interference.",
		},
		{
			Name: "antenna-polarization",
			Stem: allOf("antenna", "polarization"),
			Text: "Matching polarization between transmitting and receiving antennas maximizes signal transfer. Mismatched polarization (vertical vs horizontal) significantly reduces received signal strength because antennas are most sensitive to signals with matching polarization.",
		},
		{
			Name: "dipole-pattern",
			Stem: allOf("antenna", "dipole", "pattern"),
			Text: "A half-wave dipole radiates most effectively broadside (perpendicular) to the antenna's length. The radiation pattern is roughly donut-shaped with minimum radiation off the ends of the antenna.",
		},
		{
			Name: "antenna-gain",
			Stem: allOf("antenna", "gain"),
			Text: "Antenna gain is the increase in signal strength in a specific direction compared to a reference antenna (usually isotropic or dipole). Directional antennas like Yagis achieve gain by focusing radiated energy in desired directions rather than radiating equally in all directions.",
		},
		{
			Name: "propagation",
			Stem: anyOf("propagation", "ionosphere"),
			Text: "Radio wave propagation involves multiple mechanisms: line-of-sight for direct paths, ionospheric reflection for long-distance HF communications, tropospheric ducting for extended VHF/UHF range, and diffraction that allows signals to bend around obstacles.",
		},
		{
			Name: "impedance-swr",
			Stem: anyOf("impedance", "swr"),
			Text: "Impedance matching ensures maximum power transfer from transmitter to antenna. SWR (Standing Wave Ratio) measures the quality of this match. High SWR indicates poor matching and can cause excessive losses and equipment damage.",
		},
		{
			Name: "single-sideband",
			Stem: anyOf("ssb", "single sideband"),
			Text: "Single Sideband (SSB) is an efficient form of amplitude modulation that transmits only one sideband, using less bandwidth and power than AM. It's preferred for voice communications, especially for weak-signal long-distance work.",
		},
		{
			Name:   "frequency-modulation",
			Stem:   allOf("fm"),
			Answer: allOf("frequency modulation"),
			Text:   "Frequency Modulation varies the carrier frequency based on the audio signal amplitude. FM provides good audio quality and noise rejection but uses more bandwidth than SSB. It's commonly used for VHF/UHF voice repeaters.",
		},
		{
			Name: "ohms-law",
			Stem: allOf("ohm", "law"),
			Text: "Ohm's Law (E = I × R) describes the relationship between voltage (E), current (I), and resistance (R) in an electrical circuit. This fundamental relationship allows calculation of any one parameter when the other two are known.",
		},
	}
}

const rfBurnText = "Touching an active antenna during transmission can cause RF burns because the antenna radiates RF energy that can be absorbed by nearby conductors (including the human body), causing localized heating."

const ctcssText = "CTCSS (Continuous Tone-Coded Squelch System) uses a sub-audible tone transmitted with voice to open the repeater's squelch. This prevents interference from other signals and access to private repeater systems."
