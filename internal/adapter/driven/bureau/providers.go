package bureau

import "github.com/creditwatch/creditwatch/internal/domain/model"

// Each provider wants the same identity fields under different names and
// nesting. The payload builders below are the single place those wire
// differences live on the request side; the response side lives in the
// normalizer's per-provider mapping.

func experianSpec() providerSpec {
	return providerSpec{
		tokenPath:  "/oauth2/v1/token",
		reportPath: "/consumerservices/credit-profile/v2/credit-report",
		buildPayload: func(id model.SubjectIdentity) any {
			return map[string]any{
				"consumerPii": map[string]any{
					"primaryApplicant": map[string]any{
						"name": map[string]string{
							"firstName": id.FirstName,
							"lastName":  id.LastName,
						},
						"dob": map[string]string{
							"dob": id.DOB,
						},
						"ssn": map[string]string{
							"ssn": id.NationalIDLast4,
						},
						"currentAddress": map[string]string{
							"line1":   id.Address.Street,
							"city":    id.Address.City,
							"state":   id.Address.State,
							"zipCode": id.Address.Zip,
						},
					},
				},
				"requestor": map[string]string{
					"subscriberCode": "creditwatch",
				},
				"permissiblePurpose": map[string]string{
					"type": "3F", // Written instructions of the consumer.
				},
			}
		},
	}
}

func equifaxSpec() providerSpec {
	return providerSpec{
		tokenPath:  "/v2/oauth/token",
		reportPath: "/business/consumer-credit-report/v1/reports",
		buildPayload: func(id model.SubjectIdentity) any {
			return map[string]any{
				"consumers": map[string]any{
					"name": []map[string]string{{
						"identifier": "current",
						"firstName":  id.FirstName,
						"lastName":   id.LastName,
					}},
					"dateOfBirth": id.DOB,
					"socialNum": []map[string]string{{
						"identifier": "current",
						"number":     id.NationalIDLast4,
					}},
					"addresses": []map[string]string{{
						"identifier":    "current",
						"streetAddress": id.Address.Street,
						"city":          id.Address.City,
						"state":         id.Address.State,
						"zip":           id.Address.Zip,
					}},
				},
				"customerReferenceIdentifier": "creditwatch",
				"customerConfiguration": map[string]any{
					"equifaxUSConsumerCreditReport": map[string]any{
						"ECOAInquiryType": "Individual",
					},
				},
			}
		},
	}
}

func transunionSpec() providerSpec {
	return providerSpec{
		tokenPath:  "/auth/oauth/token",
		reportPath: "/credit-report-service/v1/requests",
		buildPayload: func(id model.SubjectIdentity) any {
			return map[string]any{
				"document": map[string]any{
					"version": "2.23",
					"request": map[string]any{
						"subject": map[string]any{
							"subjectRecord": map[string]any{
								"indicative": map[string]any{
									"name": map[string]any{
										"person": map[string]string{
											"first": id.FirstName,
											"last":  id.LastName,
										},
									},
									"dateOfBirth":    id.DOB,
									"socialSecurity": map[string]string{"number": id.NationalIDLast4},
									"address": map[string]any{
										"street": map[string]string{"unparsed": id.Address.Street},
										"location": map[string]string{
											"city":    id.Address.City,
											"state":   id.Address.State,
											"zipCode": id.Address.Zip,
										},
									},
								},
							},
						},
						"permissiblePurpose": map[string]string{"inquiryECOADesignator": "individual"},
					},
				},
			}
		},
	}
}
