// Copyright 2025 boring91
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llmeval

import "github.com/boring91/google-ssvc/pkg/ssvc"

// promptSpec is the per-decision-point portion of the prompt: the question
// asked and the assessment rules the model must follow. The wording follows
// the SSVC decision-point definitions at https://certcc.github.io/SSVC/.
type promptSpec struct {
	question string
	rules    string
}

var promptSpecs = map[ssvc.DecisionPoint]promptSpec{
	ssvc.Automatability: {
		question: "Is the CVE automateble?",
		rules: `Your answer should be either "yes" or "no". Your assessment methodology should follow
these rules:
    - You should assess a CVE with "no" if all of the following applies:
        * The vulnerable component is not searchable or enumerable on the network.
        * Weaponization may require human direction for each target.
        * Delivery may require channels that widely deployed network security configurations block.
        * Exploitation is not reliable, due to exploit-prevention techniques (e.g., ASLR) enabled by default.

    - You should assess a CVE with "yes" if:
        * The vulnerability allows remote code execution or command injection.`,
	},

	ssvc.Exploitation: {
		question: "What is the status of Exploitation of the given CVE?",
		rules: `Your answer should be either "none", "poc", or "active". Your assessment methodology should
follow these rules:
    - You should assess a CVE with "none" if there is no evidence of active exploitation and no public
    proof of concept of how to exploit the vulnerability.

    - You should assess a CVE with "poc" if one of the following applies:
        * Private evidence of exploitation is attested to but not shared.
        * Typical public proof-of-concept code exists in sources such as Metasploit or ExploitDB.
        * The method of exploitation is well known and described publicly, for example in write-ups or
        advisories, in enough detail to reproduce it.

    - You should assess a CVE with "active" if there is shared, observable and reliable evidence that
    the exploit is being used in the wild by real attackers; credible public reporting of in-the-wild
    exploitation counts, as does presence in known-exploited-vulnerabilities catalogs.`,
	},

	ssvc.Exposure: {
		question: "What is the accessible attack surface of the affected system or service? i.e., the Exposure of the CVE?",
		rules: `Your answer should be either "small", "controlled", or "open". Consider the following during your
evaluation.
- Measuring the attack surface precisely is difficult, and it is not suggested to perfectly delineate between
small and controlled access.
- Exposure should be judged against the system in its deployed context, which may differ from how it is
commonly expected to be deployed.
- System Exposure is primarily used by Deployers, so the question is about whether some specific system is
in fact exposed, not a hypothetical or aggregate question about systems of that type. Therefore, it generally
has a concrete answer, even though it may vary from vulnerable component to vulnerable component, based on
their respective configurations.
- System Exposure can be readily informed by network scanning techniques. Network policy or diagrams are also
useful information sources, especially for services intentionally open to the Internet such as public web
servers.

Also consider this:
Distinguishing between small and controlled is more nuanced. If open has been ruled out, some suggested
heuristics for differentiating the other two are as follows.
Apply these heuristics in order and stop when one of them applies.
- If the system's networking and communication interfaces have been physically removed or disabled,
choose small.
- If Automatable is yes, then choose controlled.
- If the vulnerable component is on a network where other hosts can browse the web or receive email, choose
controlled.
- If the vulnerable component is in a third-party library that is unreachable because the feature is unused in
the surrounding product, choose small.`,
	},

	ssvc.MissionImpact: {
		question: "What is the CVE's Impact on Mission essential functions of the organization?",
		rules: `Your answer should be either "degraded", "mef_support_crippled", "mef_failure", or "mission_failure".
Consider the following during your evaluation.
- A mission essential function (MEF) is a function "directly related to accomplishing the organization's
mission as set forth in its statutory or executive charter".
- Mission Essential Functions are in effect critical activities within an organization that are used to
identify key assets, supporting tasks, and resources that an organization requires to remain operational in
a crisis's situation, and so must be included in its planning process.
- During an event, key resources may be limited, and personnel may be unavailable, so organizations must
consider these factors and validate assumptions when identifying, validating, and prioritizing MEFs.
- When reviewing the list of organizational functions, an organization must first identify whether a function
is essential or non-essential.
- As mission essential functions are most clearly defined for government agencies, stakeholders in other
sectors may be familiar with different terms of art from continuity planning. For example, infrastructure
providers in the US may better align with National Critical Functions. Private sector businesses may better
align with operational and financial impacts in a business continuity plan.

Also consider this:
- The factors that influence the mission impact level are diverse.
- At a minimum, understanding mission impact should include gathering information about the critical paths
that involve vulnerable components, viability of contingency measures, and resiliency of the systems that
support the mission. There are various sources of guidance on how to gather this information; see for example
the FEMA guidance in Continuity Directive 2 or OCTAVE FORTE.
- As a heuristic, Utility might constrain Mission Impact if both are not used in the same decision tree. For
example, if the Utility is super effective, then Mission Impact is at least MEF support crippled.`,
	},

	ssvc.MissionPrevalence: {
		question: `What is the Impact on Mission Essential Functions of Relevant Entities? I.e., whether the
vulnerability affects a critical component for business continuity or fulfilling essential missions such as
protecting critical infrastructure?`,
		rules: `Your answer should be either "minimal", "support", or "essential". Consider the following during your
evaluation.
- A mission essential function (MEF) is a function "directly related to accomplishing the organization's
mission as set forth in its statutory or executive charter."
- Identifying MEFs is part of business continuity planning or crisis planning. In contrast to non-essential
functions, an organization "must perform a [MEF] during a disruption to normal operations."
- The mission is the reason an organization exists, and MEFs are how that mission is realized. Nonessential
functions support the smooth delivery or success of MEFs rather than directly supporting the mission.

Also consider this:
- Mission prevalence is more than simply counting devices or products present.
- If only a few devices are impacted, but they directly provide essential functions, then this criticality is
what is important.
- Quantity may still be an important consideration. Sometimes being ubiquitous is enough to directly provide
essential functions. Examples for the right level of detail for a "mission" are "protect critical
infrastructure" or "perform health inspections."
- This feature measures prevalence, not impact, so it does not need to account for any compensating controls or
the impact of the vulnerability on the component. (Technical impact and automatable already measure the
relevant features.)`,
	},

	ssvc.PublicWellbeing: {
		question: "What is the CVE's impact of affected system compromise on humans?",
		rules: `Your answer should be either "minimal", "material", or "irreversible". Consider the following during
your evaluation.

Evaluation should be "irreversible" if any of the following is satisfied:
    - If there is a physical harm, then one or both of the following are true:
        - Multiple fatalities are likely.
        - The cyber-physical system, of which the vulnerable component is a part, is likely lost or destroyed.
    - If there is an environmental harm, then extreme or serious externalities (immediate public health
    threat, environmental damage leading to small ecosystem collapse, etc.) are imposed on other parties.
    - If there is a financial harm, then social systems (elections, financial grid, etc.) supported by the
    software are destabilized and potentially collapse.

Evaluation should be "material" if any of the following is satisfied:
    - If there is a physical harm, then the CVE:
        - Causes physical distress or injury to system users.
        - Introduces occupational safety hazards.
        - Reduces and/or results in failure of cyber-physical system safety margins.
    - If there is an environmental harm, major externalities (property damage, environmental damage, etc.) are
    imposed on other parties.
    - If there is a financial harm, then financial losses likely lead to bankruptcy of multiple persons.
    - If there is a psychological harm, then widespread emotional or psychological harm, sufficient to
    necessitate counseling or therapy, impact populations of people.

Evaluation should be "minimal" if none of the above was satisified.`,
	},

	ssvc.TechnicalImpact: {
		question: "What is the Technical Impact of exploiting the given CVE?",
		rules: `Your assessment should be either "partial" or "total". When evaluating technical impact, the
definition of "scope" is particularly important which includes:
    - How the boundaries of the affected system are set.
    - Whose security policy is relevant.
    - How far forward in time or causal steps one reasons about effects and harms.

If an answer to one of the following questions is yes, then your assessment should be "total":
    - Can the attacker install and run arbitrary software?
    - Can the attacker trigger all the actions that the vulnerable component can perform?
    - Does the attacker get an account with full privileges to the vulnerable component (administrator or root
    user accounts, for example)?`,
	},

	ssvc.ValueDensity: {
		question: "What is the Value Density of the given CVE? In other words, the concentration of value in the target?",
		rules: `Your assessment should be either "diffuse" or "concentrated". Your assessment methodology should
follow these rules:
    - You should assess a CVE with "diffuse" if:
        * The system that contains the vulnerable component has limited resources. That is, the resources that
        the adversary will gain control over with a single exploitation event are relatively small. Examples of
        systems with diffuse value are email accounts, most consumer online banking accounts, common cell
        phones, and most personal computing resources owned and maintained by users.

    - You should assess a CVE with "concentrated" if:
        * The system that contains the vulnerable component is rich in resources. Heuristically, such systems
        are often the direct responsibility of "system operators" rather than users. Examples of concentrated
        value are database systems, Kerberos servers, web servers hosting login pages, and cloud service
        providers. However, usefulness and uniqueness of the resources on the vulnerable system also inform
        value density. For example, encrypted mobile messaging platforms may have concentrated value, not
        because each phone's messaging history has a particularly large amount of data, but because it is
        uniquely valuable to law enforcement.`,
	},
}
