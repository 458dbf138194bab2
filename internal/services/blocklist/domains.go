package blocklist

// neverOfficialDomains are domains that can never be an organization's
// official website, regardless of what search returns. Checked in addition
// to the stored blocklist.
var neverOfficialDomains = map[string]bool{
	// Social media
	"facebook.com": true, "twitter.com": true, "instagram.com": true,
	"linkedin.com": true, "youtube.com": true, "tiktok.com": true,
	"pinterest.com": true,
	// Review/listing sites
	"yelp.com": true, "tripadvisor.com": true, "foursquare.com": true,
	"yellowpages.com": true, "whitepages.com": true, "superpages.com": true,
	"bbb.org": true,
	// Event aggregators
	"eventbrite.com": true, "meetup.com": true, "ticketmaster.com": true,
	// Reference/info sites
	"wikipedia.org": true, "wikidata.org": true,
	// Maps/directions
	"google.com": true, "maps.google.com": true, "mapquest.com": true,
	"mapcarta.com": true, "latlong.net": true, "cualbondi.org": true,
	// Job sites
	"indeed.com": true, "glassdoor.com": true, "ziprecruiter.com": true,
	// School ranking sites
	"usnews.com": true, "niche.com": true, "greatschools.org": true,
	// Library aggregators (we want the actual library site)
	"librarytechnology.org": true, "worldcat.org": true,
}

// seedEntry is one row of the initial blocklist.
type seedEntry struct {
	Domain string
	Reason string
}

// seedDomains is the starting blocklist, written to storage on first run.
// Auto-blocked domains accumulate on top of these.
var seedDomains = []seedEntry{
	// Event aggregators (not the actual venue)
	{"eventbrite.com", "Event aggregator"},
	{"eventbrite.co.uk", "Event aggregator"},
	{"happeningnext.com", "Event aggregator"},
	{"allevents.in", "Event aggregator"},
	{"evvnt.com", "Event aggregator"},
	{"10times.com", "Event aggregator"},
	{"eventful.com", "Event aggregator"},
	{"bandsintown.com", "Event aggregator"},
	{"songkick.com", "Event aggregator"},
	{"seatgeek.com", "Ticket aggregator"},
	{"stubhub.com", "Ticket aggregator"},
	{"ticketmaster.com", "Ticket aggregator"},
	{"axs.com", "Ticket aggregator"},
	{"vividseat.com", "Ticket aggregator"},

	// Review/listing sites
	{"yelp.com", "Review site"},
	{"tripadvisor.com", "Review site"},
	{"tripadvisor.co.uk", "Review site"},
	{"foursquare.com", "Review site"},
	{"zomato.com", "Review site"},

	// Maps/directions
	{"mapquest.com", "Maps site"},
	{"maps.google.com", "Maps site"},
	{"waze.com", "Maps site"},

	// Real estate
	{"zillow.com", "Real estate"},
	{"trulia.com", "Real estate"},
	{"realtor.com", "Real estate"},
	{"redfin.com", "Real estate"},
	{"apartments.com", "Real estate"},
	{"bostonapartments.com", "Real estate"},

	// Travel/tourism aggregators
	{"thecrazytourist.com", "Travel blog"},
	{"tripsavvy.com", "Travel blog"},
	{"timeout.com", "City guide"},
	{"thrillist.com", "City guide"},
	{"infatuation.com", "City guide"},

	// Social media
	{"facebook.com", "Social media"},
	{"instagram.com", "Social media"},
	{"twitter.com", "Social media"},
	{"x.com", "Social media"},
	{"linkedin.com", "Social media"},
	{"nextdoor.com", "Social media"},

	// Generic directories
	{"yellowpages.com", "Business directory"},
	{"whitepages.com", "Business directory"},
	{"chamberofcommerce.com", "Business directory"},
	{"manta.com", "Business directory"},
	{"bbb.org", "Business directory"},

	// News aggregators (not event sources)
	{"patch.com", "News aggregator"},
	{"hometownweekly.net", "News aggregator"},

	// Wikipedia (info, not events)
	{"wikipedia.org", "Encyclopedia"},

	// Generic/spam
	{"meetup.com", "Meetup platform"},
	{"groupon.com", "Deals site"},
}
