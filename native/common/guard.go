package common

// ModuleAttestation is the pause scope shared by every attestation write path.
const ModuleAttestation = "attestation"

var ErrModulePaused = NewError(KindState, "paused", "module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
