package batch

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arghyasur1991/mujoco-unity/internal/engine"
)

var _ = Describe("batched rollout", func() {
	var (
		m *engine.Model
		b *Batch
	)

	newCartpole := func() *engine.Model {
		m, err := engine.New(engine.ModelSpec{
			Name:     "cartpole",
			Timestep: 0.002,
			Bodies: []engine.BodySpec{
				{
					Name: "cart",
					Mass: 1.0,
					Joint: engine.JointSpec{
						Name: "slider", Type: "slide",
						Axis: []float64{1, 0, 0}, Damping: 0.05,
					},
				},
				{
					Name: "pole", Parent: "cart", Mass: 0.1,
					IPos: []float64{0, 0, -0.5},
					Joint: engine.JointSpec{
						Name: "swing", Type: "hinge",
						Axis: []float64{0, 1, 0}, Damping: 0.01,
					},
				},
			},
			Actuators: []engine.ActuatorSpec{
				{Name: "push", Joint: "slider", Gear: 10.0},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	BeforeEach(func() {
		m = newCartpole()
		var err error
		b, err = New(m, Config{NumEnvs: 4})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		b.Close()
	})

	It("steps four environments and gathers environment-major positions", func() {
		Expect(m.Nq()).To(Equal(2))
		Expect(m.Nu()).To(Equal(1))

		controls := []float64{0.1, -0.1, 0, 0}
		Expect(b.Step(controls)).To(Succeed())

		qpos, err := b.Gather(engine.FieldQpos)
		Expect(err).NotTo(HaveOccurred())
		Expect(qpos).To(HaveLen(8))

		// environments 2 and 3 received zero control: identical to
		// each other and to an independent zero-control step
		ref := newCartpole().MakeData()
		ref.Step()
		for j := 0; j < 2; j++ {
			Expect(qpos[2*2+j]).To(Equal(ref.Qpos[j]))
			Expect(qpos[3*2+j]).To(Equal(ref.Qpos[j]))
		}

		// environments 0 and 1 were pushed in opposite directions
		Expect(qpos[0*2+0]).To(BeNumerically(">", qpos[2*2+0]))
		Expect(qpos[1*2+0]).To(BeNumerically("<", qpos[2*2+0]))

		// each matches one independent step with its own control
		for i, u := range []float64{0.1, -0.1} {
			solo := newCartpole().MakeData()
			solo.SetCtrl([]float64{u})
			solo.Step()
			for j := 0; j < 2; j++ {
				Expect(qpos[i*2+j]).To(Equal(solo.Qpos[j]))
			}
		}
	})

	It("recovers a diverged environment through a masked reset", func() {
		bad := []float64{1e308, 0, 0, 0}
		for i := 0; i < 3; i++ {
			Expect(b.Step(bad)).To(Succeed())
		}

		qpos, err := b.Gather(engine.FieldQpos)
		Expect(err).NotTo(HaveOccurred())

		// divergence shows up in the gathered state, not as an error
		Expect(b.Env(0).WarningCount(engine.WarnBadQpos) > 0 ||
			qpos[0] > 1e100).To(BeTrue())

		Expect(b.Reset([]bool{true, false, false, false})).To(Succeed())

		qpos, err = b.Gather(engine.FieldQpos)
		Expect(err).NotTo(HaveOccurred())
		Expect(qpos[0]).To(Equal(0.0))
		Expect(qpos[1]).To(Equal(0.0))
	})

	It("supports domain randomization through per-slot scatter", func() {
		for i := 0; i < b.NumEnvs(); i++ {
			Expect(b.SetEnvField(i, engine.FieldQpos,
				[]float64{0.01 * float64(i), 0})).To(Succeed())
		}

		Expect(b.Step(make([]float64, 4))).To(Succeed())

		qpos, err := b.Gather(engine.FieldQpos)
		Expect(err).NotTo(HaveOccurred())
		for i := 1; i < b.NumEnvs(); i++ {
			Expect(qpos[i*2]).NotTo(Equal(qpos[(i-1)*2]))
		}
	})
})
