package foo_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/restrain/internal/algebra"
	"github.com/san-kum/restrain/internal/core"
	"github.com/san-kum/restrain/internal/foo"
	"github.com/san-kum/restrain/internal/kernel"
)

var _ = Describe("MyRestraint", func() {
	var (
		m *kernel.Model
		p kernel.ParticleIndex
		d core.XYZ
		r *foo.MyRestraint
	)

	BeforeEach(func() {
		var err error
		m = kernel.NewModel()
		p = m.AddParticle("p")
		d, err = core.SetupXYZ(m, p, algebra.NewVector3D(1, 2, 3))
		Expect(err).NotTo(HaveOccurred())
		r = foo.NewMyRestraint(m, p, 10.0)
	})

	It("scores half k times z squared", func() {
		score, err := r.Evaluate(true)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", 45.0, 1e-4))
	})

	It("accumulates k times z on the z derivative", func() {
		_, err := r.Evaluate(true)
		Expect(err).NotTo(HaveOccurred())

		derivs, err := d.Derivatives()
		Expect(err).NotTo(HaveOccurred())
		Expect(algebra.Distance(derivs, algebra.NewVector3D(0, 0, 30))).To(BeNumerically("<", 1e-4))
	})

	It("depends on exactly its particle", func() {
		inputs := r.Inputs()
		Expect(inputs).To(HaveLen(1))

		particle, err := m.Particle(p)
		Expect(err).NotTo(HaveOccurred())
		Expect(inputs[0]).To(BeIdenticalTo(particle))
	})

	It("leaves derivatives untouched when they are not requested", func() {
		score, err := r.Evaluate(false)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", 45.0, 1e-4))

		derivs, err := d.Derivatives()
		Expect(err).NotTo(HaveOccurred())
		Expect(derivs).To(Equal(algebra.Zero()))
	})

	It("does not accumulate derivatives across evaluations", func() {
		for i := 0; i < 3; i++ {
			_, err := r.Evaluate(true)
			Expect(err).NotTo(HaveOccurred())
		}
		dz, err := d.Derivative(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(dz).To(BeNumerically("~", 30.0, 1e-9))
	})

	It("names restraints uniquely per model", func() {
		other := foo.NewMyRestraint(m, p, 1.0)
		Expect(r.Name()).To(Equal("MyRestraint0"))
		Expect(other.Name()).To(Equal("MyRestraint1"))
	})

	It("ignores x and y", func() {
		Expect(d.SetCoordinates(algebra.NewVector3D(-50, 70, 3))).To(Succeed())
		score, err := r.Evaluate(true)
		Expect(err).NotTo(HaveOccurred())
		Expect(score).To(BeNumerically("~", 45.0, 1e-4))
	})

	DescribeTable("score and gradient across z",
		func(z, k, wantScore, wantDz float64) {
			Expect(d.SetCoordinate(2, z)).To(Succeed())
			r := foo.NewMyRestraint(m, p, k)

			score, err := r.Evaluate(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", wantScore, 1e-9))

			dz, err := d.Derivative(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(dz).To(BeNumerically("~", wantDz, 1e-9))
		},
		Entry("at the plane", 0.0, 10.0, 0.0, 0.0),
		Entry("below the plane", -2.0, 10.0, 20.0, -20.0),
		Entry("soft spring", 4.0, 0.5, 4.0, 2.0),
		Entry("zero stiffness", 3.0, 0.0, 0.0, 0.0),
	)

	Context("inside a weighted set", func() {
		It("scales score and derivative by the weights", func() {
			r.SetWeight(2)
			rs := kernel.NewRestraintSet(m, "set")
			rs.SetWeight(0.5)
			Expect(rs.Add(r)).To(Succeed())

			score, err := kernel.Evaluate(rs, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("~", 45.0, 1e-9))

			dz, err := d.Derivative(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(dz).To(BeNumerically("~", 30.0, 1e-9))
		})
	})

	Context("when the particle is gone", func() {
		It("reports an unknown particle", func() {
			Expect(m.RemoveParticle(p)).To(Succeed())

			_, err := r.Evaluate(true)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, kernel.ErrUnknownParticle)).To(BeTrue())
			Expect(r.Inputs()).To(BeEmpty())
		})
	})

	Context("when the particle has no coordinates", func() {
		It("reports the missing decoration", func() {
			bare := m.AddParticle("bare")
			r := foo.NewMyRestraint(m, bare, 1.0)

			_, err := r.Evaluate(false)
			Expect(err).To(MatchError(core.ErrNotXYZ))
		})
	})
})
