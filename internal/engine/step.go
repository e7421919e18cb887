package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Step advances the environment by exactly one timestep: generalized
// forces from actuation, springs, gravity and applied wrenches, an
// implicit damping solve relaxed for the model's solver iteration
// count, a semi-implicit Euler position update, then a forward pass to
// refresh all derived fields.
//
// Numerical divergence is not an error: non-finite values are stored
// as ordinary state and counted in the warning counters.
func (d *Data) Step() {
	m := d.model
	dt := m.timestep

	// world frames from the current configuration, so force
	// projections below see up-to-date orientations
	d.forward()

	zero(d.QfrcActuator)
	badCtrl := false
	for i := 0; i < m.nu; i++ {
		if !finite(d.Ctrl[i]) {
			badCtrl = true
		}
		f := m.gear[i] * d.Ctrl[i]
		d.ActuatorForce[i] = f
		d.QfrcActuator[m.actJoint[i]] += f
	}
	if badCtrl {
		d.warnings[WarnBadCtrl]++
	}

	for j := 0; j < m.nv; j++ {
		b := j + 1
		tau := d.QfrcActuator[j]
		tau -= m.stiffness[j] * (d.Qpos[j] - m.qpos0[j])
		tau += d.gravityForce(j, b)
		tau += d.appliedForce(j, b)

		// Implicit damping: v' = v + dt*(tau - c*v')/I, relaxed by
		// fixed-point iteration. Each dof is uncoupled, so the
		// iterate converges to the closed-form solution.
		inertia := m.inertia[b]
		v := d.Qvel[j]
		vNew := v
		for it := 0; it < m.solIters; it++ {
			vNew = v + dt*(tau-m.damping[j]*vNew)/inertia
		}
		d.Qvel[j] = vNew
	}

	for j := 0; j < m.nq; j++ {
		d.Qpos[j] += dt * d.Qvel[j]
	}
	d.Time += dt

	if !allFinite(d.Qpos) {
		d.warnings[WarnBadQpos]++
	}
	if !allFinite(d.Qvel) {
		d.warnings[WarnBadQvel]++
	}

	d.forward()
}

// gravityForce projects gravity on body b onto dof j.
func (d *Data) gravityForce(j, b int) float64 {
	m := d.model
	aw := d.bodyQuat(b).Rotate(m.axis[j])
	fg := mgl64.Vec3{0, 0, m.mass[b] * m.gravity}
	if m.jntType[j] == Slide {
		return aw.Dot(fg)
	}
	r := vec3At(d.Xipos, b*3).Sub(vec3At(d.Xpos, b*3))
	return aw.Dot(r.Cross(fg))
}

// appliedForce projects the caller-applied wrench on body b onto
// dof j.
func (d *Data) appliedForce(j, b int) float64 {
	m := d.model
	fx := d.XfrcApplied[b*6 : b*6+6]
	force := mgl64.Vec3{fx[0], fx[1], fx[2]}
	torque := mgl64.Vec3{fx[3], fx[4], fx[5]}
	aw := d.bodyQuat(b).Rotate(m.axis[j])
	if m.jntType[j] == Slide {
		return aw.Dot(force)
	}
	r := vec3At(d.Xipos, b*3).Sub(vec3At(d.Xpos, b*3))
	return aw.Dot(torque) + aw.Dot(r.Cross(force))
}

// forward recomputes every derived field from qpos/qvel: body frames,
// centers of mass, spatial velocities, packed inertial rows, external
// wrench echo and subtree COM.
func (d *Data) forward() {
	m := d.model

	// world body: origin frame, zero velocity
	storeQuat(d.Xquat, 0, mgl64.QuatIdent())

	for b := 1; b < m.nbody; b++ {
		j := b - 1
		p := m.parent[b]
		pq := d.bodyQuat(p)
		ppos := vec3At(d.Xpos, p*3)

		var bq mgl64.Quat
		var bpos mgl64.Vec3
		switch m.jntType[j] {
		case Hinge:
			bq = pq.Mul(mgl64.QuatRotate(d.Qpos[j], m.axis[j])).Normalize()
			bpos = ppos.Add(pq.Rotate(m.bodyPos[b]))
		case Slide:
			bq = pq
			off := m.bodyPos[b].Add(m.axis[j].Mul(d.Qpos[j]))
			bpos = ppos.Add(pq.Rotate(off))
		}
		storeQuat(d.Xquat, b, bq)
		storeVec3(d.Xpos, b*3, bpos)

		com := bpos.Add(bq.Rotate(m.ipos[b]))
		storeVec3(d.Xipos, b*3, com)

		// spatial velocity: parent's, transported to this frame,
		// plus the joint's own dof
		wp := vec3At(d.Cvel, p*6)
		vp := vec3At(d.Cvel, p*6+3)
		w := wp
		v := vp.Add(wp.Cross(bpos.Sub(ppos)))
		aw := bq.Rotate(m.axis[j])
		switch m.jntType[j] {
		case Hinge:
			w = w.Add(aw.Mul(d.Qvel[j]))
		case Slide:
			v = v.Add(aw.Mul(d.Qvel[j]))
		}
		storeVec3(d.Cvel, b*6, w)
		storeVec3(d.Cvel, b*6+3, v)

		// packed inertial row: inertia (6), mass*com (3), mass (1)
		inert := m.inertia[b]
		mass := m.mass[b]
		ci := d.Cinert[b*10 : b*10+10]
		ci[0], ci[1], ci[2] = inert, inert, inert
		ci[3], ci[4], ci[5] = 0, 0, 0
		ci[6], ci[7], ci[8] = mass*com[0], mass*com[1], mass*com[2]
		ci[9] = mass

		// external wrench echo, [torque, force] ordering
		fx := d.XfrcApplied[b*6 : b*6+6]
		ce := d.CfrcExt[b*6 : b*6+6]
		ce[0], ce[1], ce[2] = fx[3], fx[4], fx[5]
		ce[3], ce[4], ce[5] = fx[0], fx[1], fx[2]
	}

	// subtree COM, accumulated leaves-first; the world row ends up
	// holding the whole-model COM
	for b := 0; b < m.nbody; b++ {
		d.subMass[b] = m.mass[b]
		com := vec3At(d.Xipos, b*3)
		storeVec3(d.subMom, b*3, com.Mul(m.mass[b]))
	}
	for b := m.nbody - 1; b >= 1; b-- {
		p := m.parent[b]
		d.subMass[p] += d.subMass[b]
		storeVec3(d.subMom, p*3, vec3At(d.subMom, p*3).Add(vec3At(d.subMom, b*3)))
	}
	for b := 0; b < m.nbody; b++ {
		if d.subMass[b] > 0 {
			storeVec3(d.SubtreeCom, b*3, vec3At(d.subMom, b*3).Mul(1/d.subMass[b]))
		} else {
			storeVec3(d.SubtreeCom, b*3, vec3At(d.Xpos, b*3))
		}
	}
}

func (d *Data) bodyQuat(b int) mgl64.Quat {
	q := d.Xquat[b*4 : b*4+4]
	return mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}
}

func vec3At(s []float64, off int) mgl64.Vec3 {
	return mgl64.Vec3{s[off], s[off+1], s[off+2]}
}

func storeVec3(s []float64, off int, v mgl64.Vec3) {
	s[off], s[off+1], s[off+2] = v[0], v[1], v[2]
}

func storeQuat(s []float64, b int, q mgl64.Quat) {
	s[b*4] = q.W
	s[b*4+1] = q.V[0]
	s[b*4+2] = q.V[1]
	s[b*4+3] = q.V[2]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(s []float64) bool {
	for _, v := range s {
		if !finite(v) {
			return false
		}
	}
	return true
}
