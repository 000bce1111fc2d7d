// Package e2e provides end-to-end tests over a corpus of contracts and multiple questions.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/counsel/internal/models"
)

// Contract is a document served by the fake service: a name and its clauses.
type Contract struct {
	Name    string
	Clauses []string
}

// Content is the full text returned by /document/{name}.
func (c Contract) Content() string {
	return strings.Join(c.Clauses, "\n\n")
}

// QueryTestCase defines a question and the contract(s) whose clauses must come back as evidence.
type QueryTestCase struct {
	Query             string
	ExpectedContracts []string
	Description       string
}

// Corpus holds contracts and question test cases for E2E tests.
type Corpus struct {
	Contracts    []Contract
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of n contracts. Each contract carries a unique
// "signature" phrase in one of its clauses so questions can assert the right
// contract is cited.
func BuildCorpus(n int) *Corpus {
	contracts := buildContracts(n)
	cases := buildQueryTestCases(contracts)
	return &Corpus{
		Contracts:    contracts,
		TestCases:    cases,
		TotalDocs:    len(contracts),
		TotalQueries: len(cases),
	}
}

var topics = []struct {
	kind   string
	phrase string
	clause string
}{
	{"msa", "limitation of liability", "Limitation of liability: neither party is liable for indirect or consequential damages. The limitation of liability does not apply to gross negligence."},
	{"lease", "security deposit", "The Tenant shall pay a security deposit equal to two months of rent, refundable within thirty days after the lease ends."},
	{"nda", "confidential information", "Confidential information excludes material that is publicly available through no fault of the receiving party."},
	{"employment", "non-compete covenant", "The non-compete covenant applies for twelve months after termination and within fifty miles of any office."},
	{"supply", "force majeure event", "Neither party is in breach while a force majeure event, including flood, war or epidemic, prevents performance."},
	{"license", "perpetual license", "The Licensor grants a perpetual license to use the Software, which survives expiry of support."},
	{"loan", "interest rate", "The interest rate is fixed at five percent per annum, calculated on the outstanding principal."},
	{"services", "service level credits", "Service level credits of ten percent apply for each month availability falls below the agreed target."},
	{"purchase", "title and risk", "Title and risk in the goods pass to the Buyer upon delivery at the named port."},
	{"partnership", "profit sharing", "Profit sharing between the partners follows their capital contributions unless agreed otherwise in writing."},
	{"consulting", "independent contractor", "The Consultant acts as an independent contractor and is responsible for its own taxes."},
	{"franchise", "royalty fee", "The Franchisee pays a royalty fee of six percent of gross sales every quarter."},
	{"distribution", "exclusive territory", "The Distributor holds an exclusive territory covering the northern region for the initial term."},
	{"agency", "commission schedule", "The commission schedule in Annex B sets the Agent's percentage for each product line."},
	{"sla", "uptime commitment", "The Provider's uptime commitment is ninety-nine point nine percent measured monthly."},
	{"ip-assignment", "assignment of inventions", "The assignment of inventions covers all work product created during the engagement."},
	{"settlement", "release of claims", "In exchange for the payment, the Claimant grants a full release of claims arising before the effective date."},
	{"escrow", "escrow agent", "The escrow agent releases the source code only upon a verified insolvency of the Vendor."},
	{"joint-venture", "deadlock resolution", "Deadlock resolution proceeds first by mediation and then by a buy-sell mechanism."},
	{"shareholders", "drag-along right", "A drag-along right allows holders of seventy-five percent of the shares to compel a sale."},
	{"construction", "liquidated damages", "Liquidated damages accrue at one thousand dollars for each day of delay past the completion date."},
	{"insurance", "indemnification obligation", "The indemnification obligation covers third-party claims arising from the Contractor's breach."},
	{"hosting", "data processing addendum", "The data processing addendum governs personal data handled on behalf of the Customer."},
	{"subscription", "automatic renewal", "The subscription is subject to automatic renewal for successive one-year terms unless cancelled."},
	{"warranty", "warranty period", "The warranty period is eighteen months from the date of installation."},
}

var boilerplate = []string{
	"This Agreement is entered into between %s and the Counterparty on the effective date written below.",
	"Each party represents that it has authority to sign.",
	"Notices must be delivered in writing to the addresses stated on the signature page.",
}

func buildContracts(n int) []Contract {
	out := make([]Contract, 0, n)
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		name := fmt.Sprintf("%s-%03d.pdf", t.kind, i+1)
		clauses := []string{
			fmt.Sprintf(boilerplate[0], strings.ToUpper(t.kind)),
			boilerplate[1],
			t.clause,
			boilerplate[2],
		}
		out = append(out, Contract{Name: name, Clauses: clauses})
	}
	return out
}

func buildQueryTestCases(contracts []Contract) []QueryTestCase {
	var cases []QueryTestCase
	for _, t := range topics {
		var expected []string
		for _, c := range contracts {
			if containsPhrase(c, t.phrase) {
				expected = append(expected, c.Name)
			}
		}
		if len(expected) == 0 {
			continue
		}
		cases = append(cases, QueryTestCase{
			Query:             t.phrase,
			ExpectedContracts: expected,
			Description:       fmt.Sprintf("question %q should cite %s", t.phrase, expected[0]),
		})
	}
	return cases
}

func containsPhrase(c Contract, phrase string) bool {
	return strings.Contains(strings.ToLower(c.Content()), strings.ToLower(phrase))
}

// Retrieve returns every clause in the corpus that mentions query, ignoring case.
func (c *Corpus) Retrieve(query string) []models.Evidence {
	q := strings.ToLower(query)
	var out []models.Evidence
	for _, contract := range c.Contracts {
		for _, clause := range contract.Clauses {
			if strings.Contains(strings.ToLower(clause), q) {
				out = append(out, models.Evidence{Source: contract.Name, Text: clause})
			}
		}
	}
	return out
}
