package core

// KinematicsMode is the strategy selected once at boot, per the redesign
// flag on the original preprocessor feature matrix: Cartesian, CoreXY,
// CoreXZ, Delta, and DualXCarriage each implement it. StepExecutor resolves
// a KinematicsMode's behavior into plain function values at block
// acquisition time (resolveKinematics), so the hot per-step-event loop
// never dispatches through the interface.
type KinematicsMode interface {
	Kind() KinematicsKind

	// HeadDirection reports whether the kinematic head is moving along the
	// X and Y directions for block b. For Cartesian/Delta/DualXCarriage
	// this is just "does the block command nonzero X/Y motion"; for
	// CoreXY/CoreXZ it is the A/B-motor head-direction predicate.
	HeadDirection(b *Block) (headX, headY bool)

	// BabystepAxes names the axes a babystep pulses together, sharing one
	// direction sign. nil means "use the single axis the caller named".
	BabystepAxes() []AxisIndex

	// HomingAxisOwner names which physical carriage axis owns b's active
	// extruder, for dual-X endstop gating. Cartesian kinematics always
	// owns AxisX.
	HomingAxisOwner(b *Block) AxisIndex
}

func headDirectionDirect(b *Block) (bool, bool) {
	return b.Steps[AxisX] != 0, b.Steps[AxisY] != 0
}

// headDirectionCoreXY implements the A/B-motor head-motion predicate: head
// X motion occurs when the two motor step counts differ, or when they
// agree in direction; head Y is the complement.
func headDirectionCoreXY(aSteps, bSteps uint32, dirA, dirB bool) (headX, headY bool) {
	headX = aSteps != bSteps || dirA == dirB
	return headX, !headX
}

func homingOwnerSingle(*Block) AxisIndex { return AxisX }

type cartesianMode struct{}

func (cartesianMode) Kind() KinematicsKind                { return KinematicsCartesian }
func (cartesianMode) HeadDirection(b *Block) (bool, bool) { return headDirectionDirect(b) }
func (cartesianMode) BabystepAxes() []AxisIndex            { return nil }
func (cartesianMode) HomingAxisOwner(b *Block) AxisIndex   { return homingOwnerSingle(b) }

type coreXYMode struct{}

func (coreXYMode) Kind() KinematicsKind { return KinematicsCoreXY }
func (coreXYMode) HeadDirection(b *Block) (bool, bool) {
	dirA := b.DirectionBits&(1<<uint(AxisX)) != 0
	dirB := b.DirectionBits&(1<<uint(AxisY)) != 0
	return headDirectionCoreXY(b.Steps[AxisX], b.Steps[AxisY], dirA, dirB)
}
func (coreXYMode) BabystepAxes() []AxisIndex          { return nil }
func (coreXYMode) HomingAxisOwner(b *Block) AxisIndex { return homingOwnerSingle(b) }

// coreXZMode generalizes the same head-motion derivation to the X/Z motor
// pair, confirmed as a standard generalization (not a redesign invention)
// by the CoreXZ kinematics package carried in the pack's Klipper-Go port.
type coreXZMode struct{}

func (coreXZMode) Kind() KinematicsKind { return KinematicsCoreXZ }
func (coreXZMode) HeadDirection(b *Block) (bool, bool) {
	dirA := b.DirectionBits&(1<<uint(AxisX)) != 0
	dirC := b.DirectionBits&(1<<uint(AxisZ)) != 0
	return headDirectionCoreXY(b.Steps[AxisX], b.Steps[AxisZ], dirA, dirC)
}
func (coreXZMode) BabystepAxes() []AxisIndex          { return nil }
func (coreXZMode) HomingAxisOwner(b *Block) AxisIndex { return homingOwnerSingle(b) }

type deltaMode struct{}

func (deltaMode) Kind() KinematicsKind                { return KinematicsDelta }
func (deltaMode) HeadDirection(b *Block) (bool, bool) { return headDirectionDirect(b) }
func (deltaMode) BabystepAxes() []AxisIndex           { return []AxisIndex{AxisX, AxisY, AxisZ} }
func (deltaMode) HomingAxisOwner(b *Block) AxisIndex  { return homingOwnerSingle(b) }

type dualXCarriageMode struct{}

func (dualXCarriageMode) Kind() KinematicsKind                { return KinematicsDualXCarriage }
func (dualXCarriageMode) HeadDirection(b *Block) (bool, bool) { return headDirectionDirect(b) }
func (dualXCarriageMode) BabystepAxes() []AxisIndex            { return nil }
func (dualXCarriageMode) HomingAxisOwner(b *Block) AxisIndex {
	if b.ActiveExtruder == 1 {
		return AxisX2
	}
	return AxisX
}

// Exported strategy singletons, selected once at boot.
var (
	Cartesian     KinematicsMode = cartesianMode{}
	CoreXY        KinematicsMode = coreXYMode{}
	CoreXZ        KinematicsMode = coreXZMode{}
	Delta         KinematicsMode = deltaMode{}
	DualXCarriage KinematicsMode = dualXCarriageMode{}
)

// resolvedKinematics is the small struct of precomputed function values
// StepExecutor builds once per block acquisition, keeping the per-tick
// pulse loop free of interface dispatch.
type resolvedKinematics struct {
	headDirection func(b *Block) (bool, bool)
	babystepAxes  []AxisIndex
	homingOwner   func(b *Block) AxisIndex
}

func resolveKinematics(k KinematicsMode) resolvedKinematics {
	if k == nil {
		k = cartesianMode{}
	}
	return resolvedKinematics{
		headDirection: k.HeadDirection,
		babystepAxes:  k.BabystepAxes(),
		homingOwner:   k.HomingAxisOwner,
	}
}
