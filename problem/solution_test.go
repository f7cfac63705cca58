package problem

import (
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/site"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/user"
	"github.com/TheDramaturgy/bs-placement-metaheuristics/simulated-annealing/utils"
)

var testRadio = site.Radio{SiteHeight: 1, UserHeight: 0, CellRadius: 10, TxPower: 1, AntennaGain: 1}

func newInstance(params Params, users, sites []utils.Position) *PlacementProblem {
	instance, err := CreatePlacementProblemInstance(params, user.CreateUserList(users), site.CreateCandidateSiteList(sites), testRadio)
	Expect(err).NotTo(HaveOccurred())
	return instance
}

func snapshot(sol *PlacementSolution) (assignments []site.SiteId, active []site.SiteId, emf []float64) {
	return sol.GetAssignments(), sol.GetActiveSites(), sol.GetExposure()
}

var _ = Describe("PlacementProblem", func() {
	params := Params{MaxSites: 2, UserRevenue: 1, SiteCost: 0.5}
	users := []utils.Position{{X: 0, Y: 0}}
	sites := []utils.Position{{X: 0, Y: 0}}

	It("rejects a non-positive site cap", func() {
		_, err := CreatePlacementProblemInstance(Params{MaxSites: 0}, user.CreateUserList(users), site.CreateCandidateSiteList(sites), testRadio)
		Expect(err).To(MatchError(ErrInvalidConfiguration))
	})

	It("rejects an empty user set", func() {
		_, err := CreatePlacementProblemInstance(params, user.CreateUserList(nil), site.CreateCandidateSiteList(sites), testRadio)
		Expect(err).To(MatchError(ErrInvalidConfiguration))
	})

	It("rejects an empty site catalog", func() {
		_, err := CreatePlacementProblemInstance(params, user.CreateUserList(users), site.CreateCandidateSiteList(nil), testRadio)
		Expect(err).To(MatchError(ErrInvalidConfiguration))
	})

	It("rejects a zero cell radius", func() {
		radio := testRadio
		radio.CellRadius = 0
		_, err := CreatePlacementProblemInstance(params, user.CreateUserList(users), site.CreateCandidateSiteList(sites), radio)
		Expect(err).To(MatchError(ErrInvalidConfiguration))
	})

	It("flags users in range of a site", func() {
		instance := newInstance(params, []utils.Position{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 5, Y: 5}}, sites)

		inRange, err := instance.UsersInRange(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(inRange).To(Equal([]bool{true, false, true}))
		Expect(instance.GetCoverage(0)).To(Equal([]user.UserId{0, 2}))

		_, err = instance.UsersInRange(1)
		Expect(err).To(MatchError(ErrIndexOutOfRange))
	})

	It("starts from an empty solution", func() {
		sol := newInstance(params, users, sites).CreateEmptySolution()
		Expect(sol.NumActiveSites()).To(BeZero())
		Expect(sol.NumServedUsers()).To(BeZero())
		Expect(sol.GetServingSite(0)).To(Equal(site.Unserved))
		Expect(sol.GetExposure()).To(Equal([]float64{0}))
		Expect(sol.CheckConsistency()).To(Succeed())
	})
})

var _ = Describe("PlacementSolution", func() {
	Context("with a single user under a single site", func() {
		var sol *PlacementSolution

		BeforeEach(func() {
			sol = newInstance(Params{MaxSites: 1, UserRevenue: 3, SiteCost: 1}, []utils.Position{{X: 0, Y: 0}}, []utils.Position{{X: 0, Y: 0}}).CreateEmptySolution()
		})

		It("serves the user on activation and frees it on deactivation", func() {
			before := sol.Revenue()

			changed, err := sol.ActivateSite(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.IsServed(0)).To(BeTrue())
			Expect(sol.GetServingSite(0)).To(Equal(site.SiteId(0)))
			Expect(sol.Revenue() - before).To(BeNumerically("~", 3-1))
			Expect(sol.GetExposure()[0]).To(BeNumerically("~", 30.0))

			changed, err = sol.DeactivateSite(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.IsServed(0)).To(BeFalse())
			Expect(sol.GetExposure()[0]).To(BeNumerically("~", 0, 1e-12))
			Expect(sol.CheckConsistency()).To(Succeed())
		})

		It("rejects out of range indices", func() {
			_, err := sol.ActivateSite(1)
			Expect(err).To(MatchError(ErrIndexOutOfRange))
			_, err = sol.DeactivateSite(-1)
			Expect(err).To(MatchError(ErrIndexOutOfRange))
			_, err = sol.ApplyMove(Move{Kind: Swap, SiteA: 7, SiteB: 0})
			Expect(err).To(MatchError(ErrIndexOutOfRange))
			_, err = sol.ApplyMove(Move{Kind: Swap, SiteA: 0, SiteB: 7})
			Expect(err).To(MatchError(ErrIndexOutOfRange))
			_, err = sol.NewUsersInRange(3)
			Expect(err).To(MatchError(ErrIndexOutOfRange))
		})
	})

	It("never counts a user twice but adds every site's exposure", func() {
		sol := newInstance(Params{MaxSites: 2, UserRevenue: 1, SiteCost: 0},
			[]utils.Position{{X: 0, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}, {X: 3, Y: 0}}).CreateEmptySolution()

		Expect(sol.ActivateSite(0)).To(BeTrue())
		newUsers, err := sol.NewUsersInRange(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(newUsers).To(Equal([]bool{false}))

		Expect(sol.ActivateSite(1)).To(BeTrue())
		Expect(sol.NumServedUsers()).To(Equal(1))
		Expect(sol.GetServingSite(0)).To(Equal(site.SiteId(0)))
		// 30/1 from the first site, 30/(9+1) from the second
		Expect(sol.GetExposure()[0]).To(BeNumerically("~", 33.0, 1e-12))
		Expect(sol.Revenue()).To(BeNumerically("~", 1.0))

		// deactivating the serving site does not hand the user over
		Expect(sol.DeactivateSite(0)).To(BeTrue())
		Expect(sol.IsServed(0)).To(BeFalse())
		Expect(sol.CheckConsistency()).To(Succeed())
	})

	It("ignores activations beyond the cap", func() {
		sol := newInstance(Params{MaxSites: 1, UserRevenue: 1, SiteCost: 1},
			[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}).CreateEmptySolution()

		Expect(sol.ActivateSite(0)).To(BeTrue())
		energy := sol.GetCost()
		assignments, active, emf := snapshot(sol)

		changed, err := sol.ActivateSite(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(sol.NumActiveSites()).To(Equal(1))
		Expect(sol.GetCost()).To(Equal(energy))
		Expect(sol.GetAssignments()).To(Equal(assignments))
		Expect(sol.GetActiveSites()).To(Equal(active))
		Expect(sol.GetExposure()).To(Equal(emf))
	})

	Context("swapping sites", func() {
		var sol *PlacementSolution

		BeforeEach(func() {
			sol = newInstance(Params{MaxSites: 1, UserRevenue: 1, SiteCost: 1},
				[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}},
				[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}).CreateEmptySolution()
			Expect(sol.ActivateSite(0)).To(BeTrue())
		})

		It("only deactivates when the cap was reached before the move", func() {
			changed, err := sol.ApplyMove(Move{Kind: Swap, SiteA: 1, SiteB: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.GetActiveSites()).To(BeEmpty())
			Expect(sol.GetAssignments()).To(Equal([]site.SiteId{site.Unserved, site.Unserved}))
			Expect(sol.CheckConsistency()).To(Succeed())
		})

		It("turns an active site off when swapped with itself", func() {
			changed, err := sol.ApplyMove(Move{Kind: Swap, SiteA: 0, SiteB: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.GetActiveSites()).To(BeEmpty())
			Expect(sol.NumServedUsers()).To(BeZero())
			Expect(sol.CheckConsistency()).To(Succeed())
		})

		It("turns an inactive site on when swapped with itself", func() {
			Expect(sol.DeactivateSite(0)).To(BeTrue())
			changed, err := sol.ApplyMove(Move{Kind: Swap, SiteA: 1, SiteB: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.GetActiveSites()).To(Equal([]site.SiteId{1}))
		})

		It("relocates when the cap had room", func() {
			instance := newInstance(Params{MaxSites: 2, UserRevenue: 1, SiteCost: 1},
				[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}},
				[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}})
			sol := instance.CreateEmptySolution()
			Expect(sol.ActivateSite(0)).To(BeTrue())

			changed, err := sol.ApplyMove(Move{Kind: Swap, SiteA: 1, SiteB: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())
			Expect(sol.GetActiveSites()).To(Equal([]site.SiteId{1}))
			Expect(sol.GetAssignments()).To(Equal([]site.SiteId{site.Unserved, 1}))
			Expect(sol.CheckConsistency()).To(Succeed())
		})
	})

	Context("with a user standing at the antenna", func() {
		var sol *PlacementSolution

		BeforeEach(func() {
			radio := site.Radio{SiteHeight: 0, UserHeight: 0, CellRadius: 10, TxPower: 1, AntennaGain: 1}
			instance, err := CreatePlacementProblemInstance(Params{MaxSites: 1, UserRevenue: 3, SiteCost: 1},
				user.CreateUserList([]utils.Position{{X: 0, Y: 0}, {X: 3, Y: 0}}),
				site.CreateCandidateSiteList([]utils.Position{{X: 0, Y: 0}}), radio)
			Expect(err).NotTo(HaveOccurred())
			sol = instance.CreateEmptySolution()
		})

		It("reports infinite exposure while the site is active", func() {
			Expect(sol.ActivateSite(0)).To(BeTrue())
			Expect(sol.IsServed(0)).To(BeTrue())
			Expect(sol.Revenue()).To(BeNumerically("~", 2*3-1))

			exposure := sol.GetExposure()
			Expect(math.IsInf(exposure[0], 1)).To(BeTrue())
			Expect(exposure[1]).To(BeNumerically("~", 30.0/9, 1e-12))
			Expect(math.IsInf(sol.PeakExposure(), 1)).To(BeTrue())
			Expect(sol.CheckConsistency()).To(Succeed())
		})

		It("returns the exposure to zero on deactivation", func() {
			Expect(sol.ActivateSite(0)).To(BeTrue())
			Expect(sol.DeactivateSite(0)).To(BeTrue())

			Expect(sol.IsServed(0)).To(BeFalse())
			Expect(sol.GetExposure()).To(Equal([]float64{0, 0}))
			Expect(sol.PeakExposure()).To(BeZero())
			Expect(sol.GetCost()).To(BeZero())
			Expect(sol.CheckConsistency()).To(Succeed())
		})

		It("survives repeated toggles", func() {
			for i := 0; i < 5; i++ {
				Expect(sol.ActivateSite(0)).To(BeTrue())
				Expect(sol.DeactivateSite(0)).To(BeTrue())
			}
			Expect(sol.GetExposure()).To(Equal([]float64{0, 0}))
			Expect(sol.CheckConsistency()).To(Succeed())
		})
	})

	It("flags a corrupted exposure accumulator", func() {
		sol := newInstance(Params{MaxSites: 1, UserRevenue: 1, SiteCost: 1},
			[]utils.Position{{X: 0, Y: 0}, {X: 1, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}}).CreateEmptySolution()
		Expect(sol.ActivateSite(0)).To(BeTrue())
		Expect(sol.CheckConsistency()).To(Succeed())

		sol.emf[0] = math.NaN()
		Expect(sol.CheckConsistency()).To(MatchError(ContainSubstring("user 0 exposure")))

		sol.emf[0] = math.Inf(1)
		Expect(sol.CheckConsistency()).To(MatchError(ContainSubstring("user 0 exposure")))

		sol.emf[0] = 30
		sol.singular[1] = 1
		Expect(sol.CheckConsistency()).To(MatchError(ContainSubstring("user 1 exposure")))
	})

	It("matches exposures with NaN and infinity awareness", func() {
		Expect(exposureMatches(1, 1+1e-12)).To(BeTrue())
		Expect(exposureMatches(math.NaN(), math.NaN())).To(BeFalse())
		Expect(exposureMatches(math.NaN(), 0)).To(BeFalse())
		Expect(exposureMatches(math.Inf(1), math.Inf(1))).To(BeTrue())
		Expect(exposureMatches(math.Inf(-1), math.Inf(1))).To(BeFalse())
		Expect(exposureMatches(math.Inf(1), 5)).To(BeFalse())
	})

	It("leaves the state untouched on a no-op move", func() {
		sol := newInstance(Params{MaxSites: 2, UserRevenue: 1, SiteCost: 1},
			[]utils.Position{{X: 0, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}, {X: 100, Y: 0}}).CreateEmptySolution()
		Expect(sol.ActivateSite(0)).To(BeTrue())
		assignments, active, emf := snapshot(sol)

		for _, move := range []Move{
			{Kind: Activate, SiteA: 0, SiteB: 1},
			{Kind: Deactivate, SiteA: 0, SiteB: 1},
			{Kind: Swap, SiteA: 0, SiteB: 1},
		} {
			changed, err := sol.ApplyMove(move)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeFalse(), move.String())
			Expect(sol.GetAssignments()).To(Equal(assignments))
			Expect(sol.GetActiveSites()).To(Equal(active))
			Expect(sol.GetExposure()).To(Equal(emf))
		}
	})

	It("scores revenue alone when exposure is excluded", func() {
		sol := newInstance(Params{MaxSites: 1, UserRevenue: 2, SiteCost: 1},
			[]utils.Position{{X: 0, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}}).CreateEmptySolution()
		Expect(sol.ActivateSite(0)).To(BeTrue())

		Expect(sol.PeakExposure()).To(BeNumerically(">", 0))
		Expect(sol.ExposurePenalty()).To(BeZero())
		Expect(sol.GetCost()).To(Equal(-sol.Revenue()))
	})

	It("adds the cubed peak exposure when exposure is included", func() {
		sol := newInstance(Params{MaxSites: 1, UserRevenue: 2, SiteCost: 1, IncludeEMFExposure: true},
			[]utils.Position{{X: 0, Y: 0}, {X: 2, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}}).CreateEmptySolution()
		Expect(sol.ActivateSite(0)).To(BeTrue())

		Expect(sol.PeakExposure()).To(BeNumerically("~", 30.0))
		Expect(sol.GetCost()).To(BeNumerically("~", -(2*2-1)+27000.0))
	})

	It("keeps users outside every cell unserved", func() {
		sol := newInstance(Params{MaxSites: 3, UserRevenue: 1, SiteCost: 0},
			[]utils.Position{{X: 0, Y: 0}, {X: 500, Y: 500}},
			[]utils.Position{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 0, Y: 5}}).CreateEmptySolution()

		rng := rand.New(rand.NewPCG(7, 11))
		for i := 0; i < 200; i++ {
			_, err := sol.ApplyMove(RandomMove(rng, 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.IsServed(1)).To(BeFalse())
		}
	})

	It("does not alias copies", func() {
		sol := newInstance(Params{MaxSites: 2, UserRevenue: 1, SiteCost: 1},
			[]utils.Position{{X: 0, Y: 0}},
			[]utils.Position{{X: 0, Y: 0}, {X: 1, Y: 0}}).CreateEmptySolution()
		clone := sol.Copy()
		target := sol.GetProblem().CreateEmptySolution()

		Expect(sol.ActivateSite(0)).To(BeTrue())
		Expect(clone.NumActiveSites()).To(BeZero())
		Expect(clone.IsServed(0)).To(BeFalse())
		Expect(clone.GetExposure()).To(Equal([]float64{0}))

		target.CopyFrom(sol)
		Expect(sol.ActivateSite(1)).To(BeTrue())
		Expect(target.GetActiveSites()).To(Equal([]site.SiteId{0}))
		Expect(target.CheckConsistency()).To(Succeed())
	})

	It("keeps the incremental state consistent over random moves", func() {
		positions := func(rng *rand.Rand, n int) []utils.Position {
			out := make([]utils.Position, n)
			for i := range out {
				out[i] = utils.Position{X: math.Floor(rng.Float64() * 60), Y: math.Floor(rng.Float64() * 60)}
			}
			return out
		}
		rng := rand.New(rand.NewPCG(42, 42))
		instance := newInstance(Params{MaxSites: 4, UserRevenue: 1, SiteCost: 2, IncludeEMFExposure: true},
			positions(rng, 40), positions(rng, 12))
		sol := instance.CreateEmptySolution()

		for i := 0; i < 2000; i++ {
			_, err := sol.ApplyMove(RandomMove(rng, instance.NumSites()))
			Expect(err).NotTo(HaveOccurred())
			Expect(sol.NumActiveSites()).To(BeNumerically("<=", 4))
			if i%50 == 0 {
				Expect(sol.CheckConsistency()).To(Succeed())
			}
		}
		Expect(sol.CheckConsistency()).To(Succeed())
	})
})

var _ = Describe("RandomMove", func() {
	It("draws indices inside the catalog and every kind", func() {
		rng := rand.New(rand.NewPCG(1, 2))
		seen := map[MoveKind]bool{}
		for i := 0; i < 300; i++ {
			move := RandomMove(rng, 5)
			Expect(move.SiteA).To(BeNumerically(">=", 0))
			Expect(move.SiteA).To(BeNumerically("<", 5))
			Expect(move.SiteB).To(BeNumerically(">=", 0))
			Expect(move.SiteB).To(BeNumerically("<", 5))
			seen[move.Kind] = true
		}
		Expect(seen).To(HaveLen(3))
	})

	It("names its kinds", func() {
		Expect(Activate.String()).To(Equal("activate"))
		Expect(Move{Kind: Swap, SiteA: 1, SiteB: 2}.String()).To(Equal("swap(a=1, b=2)"))
	})
})
