package engine

// LoopOracle decides from a machine's last W observations whether it is in
// a detectable repeating cycle.
//
// DetectPeriod reports a period p in [1, W/2] when the last p observations
// equal the p observations before them:
//
//	history[(ps-i-1) mod W] == history[(ps-i-1-p) mod W]  for all i in [0, p)
//
// The oracle is only consulted once personal_step >= Warmup. Warmup is at
// least W, so every compared slot was written by the machine itself.
//
// The oracle is a pure function of the buffer and the step counter. It may
// miss periods longer than W/2 or cycles that have not settled by Warmup;
// those machines stay undetermined.
type LoopOracle struct {
	warmup uint64
}

// NewLoopOracle creates an oracle that stays silent before warmup steps.
func NewLoopOracle(warmup int) LoopOracle {
	return LoopOracle{warmup: uint64(warmup)}
}

// DetectPeriod returns the smallest matching period, if any.
func (o LoopOracle) DetectPeriod(h *History, personalStep uint64) (int, bool) {
	if personalStep < o.warmup {
		return 0, false
	}
	w := h.Cap()
	for p := 1; p <= w/2; p++ {
		if uint64(2*p) > personalStep {
			break
		}
		if matchesPeriod(h, personalStep, uint64(p)) {
			return p, true
		}
	}
	return 0, false
}

func matchesPeriod(h *History, ps, p uint64) bool {
	for i := uint64(0); i < p; i++ {
		if h.At(ps-i-1) != h.At(ps-i-1-p) {
			return false
		}
	}
	return true
}
